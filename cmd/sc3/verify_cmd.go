package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"sc3/internal/config"
	"sc3/internal/domain"
	cryptoinfra "sc3/internal/infra/crypto"
	"sc3/internal/infra/gpg"
	"sc3/internal/usecase"
	"sc3/pkg/bundle"
)

// The CLI verifies offline: no CVE source, no collateral service, no
// cache. Verdicts rest on the evidence embedded in the bundle.
func newOrchestrator(policyPath string, quiet bool) (*usecase.Orchestrator, error) {
	policy, err := config.LoadPolicy(policyPath)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if quiet {
		log.SetLevel(logrus.WarnLevel)
	}
	keyring := usecase.NewKeyring(policy.TrustedKeys, cryptoinfra.NewService(), gpg.NewVerifier(), nil)
	return usecase.NewOrchestrator(policy, keyring, nil, nil, nil, nil, nil, log), nil
}

func loadBundle(path string) (domain.Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Bundle{}, fmt.Errorf("read bundle: %w", err)
	}
	var b domain.Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return domain.Bundle{}, fmt.Errorf("decode bundle: %w", err)
	}
	if err := bundle.Validate(b); err != nil {
		return domain.Bundle{}, fmt.Errorf("invalid bundle: %w", err)
	}
	return b, nil
}

func runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var bundlePath, policyPath, timeBoundStr, thresholdStr, outPath string
	fs.StringVar(&bundlePath, "bundle", "", "evidence bundle JSON path")
	fs.StringVar(&policyPath, "policy", "", "policy YAML path")
	fs.StringVar(&timeBoundStr, "time-bound", "", "latest acceptable evidence timestamp (RFC3339)")
	fs.StringVar(&thresholdStr, "threshold", "", "severity threshold override (LOW|MEDIUM|HIGH|CRITICAL)")
	fs.StringVar(&outPath, "out", "", "output file (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if bundlePath == "" {
		fmt.Fprintln(os.Stderr, "verify requires --bundle")
		return 1
	}

	b, err := loadBundle(bundlePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var timeBound time.Time
	if timeBoundStr != "" {
		timeBound, err = time.Parse(time.RFC3339, timeBoundStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse time bound: %v\n", err)
			return 1
		}
	}
	var override *domain.Severity
	if thresholdStr != "" {
		severity, err := domain.ParseSeverity(thresholdStr)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		override = &severity
	}

	orchestrator, err := newOrchestrator(policyPath, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	result, err := orchestrator.Verify(context.Background(), b, timeBound, override)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		return 1
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		return 1
	}
	if err := writeOutput(outPath, payload); err != nil {
		fmt.Fprintf(os.Stderr, "write result: %v\n", err)
		return 1
	}
	if !result.Passed {
		return 2
	}
	return 0
}

func runQuick(args []string) int {
	fs := flag.NewFlagSet("quick", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var bundlePath, policyPath string
	fs.StringVar(&bundlePath, "bundle", "", "evidence bundle JSON path")
	fs.StringVar(&policyPath, "policy", "", "policy YAML path")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if bundlePath == "" {
		fmt.Fprintln(os.Stderr, "quick requires --bundle")
		return 1
	}

	b, err := loadBundle(bundlePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	orchestrator, err := newOrchestrator(policyPath, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	passed, failures := orchestrator.QuickVerify(b)
	payload, err := json.MarshalIndent(map[string]any{"passed": passed, "failures": failures}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		return 1
	}
	if err := writeOutput("", payload); err != nil {
		fmt.Fprintf(os.Stderr, "write result: %v\n", err)
		return 1
	}
	if !passed {
		return 2
	}
	return 0
}

func runReport(args []string) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var bundlePath, policyPath, outPath string
	fs.StringVar(&bundlePath, "bundle", "", "evidence bundle JSON path")
	fs.StringVar(&policyPath, "policy", "", "policy YAML path")
	fs.StringVar(&outPath, "out", "", "output file (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if bundlePath == "" {
		fmt.Fprintln(os.Stderr, "report requires --bundle")
		return 1
	}

	b, err := loadBundle(bundlePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	orchestrator, err := newOrchestrator(policyPath, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	result, err := orchestrator.Verify(context.Background(), b, time.Time{}, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		return 1
	}
	if err := writeOutput(outPath, []byte(usecase.Report(result))); err != nil {
		fmt.Fprintf(os.Stderr, "write report: %v\n", err)
		return 1
	}
	if !result.Passed {
		return 2
	}
	return 0
}
