// Package cvesource queries an OSV-style vulnerability API over HTTP.
// Every lookup is individually time-bounded; callers treat errors as a
// degraded scan, never as a batch abort.
package cvesource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"sc3/internal/domain"
)

const DefaultAPIURL = "https://api.osv.dev/v1/query"

type Client struct {
	apiURL     string
	httpClient *http.Client
	log        *logrus.Entry
}

func New(apiURL string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logrus.WithField("component", "cvesource"),
	}
}

type queryRequest struct {
	Package queryPackage `json:"package"`
	Version string       `json:"version"`
}

type queryPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem,omitempty"`
}

type queryResponse struct {
	Vulns []osvVuln `json:"vulns"`
}

type osvVuln struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Severity []struct {
		Type  string `json:"type"`
		Score string `json:"score"`
	} `json:"severity"`
	Affected []struct {
		Ranges []struct {
			Type   string `json:"type"`
			Events []struct {
				Introduced string `json:"introduced,omitempty"`
				Fixed      string `json:"fixed,omitempty"`
			} `json:"events"`
		} `json:"ranges"`
	} `json:"affected"`
	DatabaseSpecific struct {
		CVSSScore float64 `json:"cvss_score"`
	} `json:"database_specific"`
}

// KnownCVEs answers "known CVEs for (name, version)" against the API.
func (c *Client) KnownCVEs(ctx context.Context, name, version, registry string) ([]domain.CVE, error) {
	payload := queryRequest{
		Package: queryPackage{Name: name, Ecosystem: registry},
		Version: version,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal cve query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build cve query: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cve source request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cve source returned status %d", resp.StatusCode)
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode cve response: %w", err)
	}

	cves := make([]domain.CVE, 0, len(decoded.Vulns))
	for _, vuln := range decoded.Vulns {
		cve := domain.CVE{
			ID:   vuln.ID,
			CVSS: vuln.DatabaseSpecific.CVSSScore,
		}
		cve.Severity = domain.SeverityFromCVSS(cve.CVSS)
		for _, affected := range vuln.Affected {
			for _, r := range affected.Ranges {
				for _, event := range r.Events {
					if event.Fixed != "" && cve.FixedVersion == "" {
						cve.FixedVersion = event.Fixed
						cve.PatchAvailable = true
					}
				}
			}
		}
		cves = append(cves, cve)
	}
	c.log.WithFields(logrus.Fields{
		"package": name + "@" + version,
		"count":   len(cves),
	}).Debug("cve lookup complete")
	return cves, nil
}
