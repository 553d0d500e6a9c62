package domain

// Localized (es) failure messages, keyed by stable code. English lives in
// each failure's Message; the catalog only covers the fixed taxonomy, so
// an unknown code falls back to empty and callers keep the English text.
var localizedMessages = map[string]string{
	CodeHashMismatch:          "el hash canónico no coincide con el valor registrado",
	CodeLevelInsufficient:     "el nivel de integridad de la compilación es inferior al mínimo",
	CodeUntrustedBuilder:      "el builder no figura entre los builders de confianza",
	CodeBuildNotHermetic:      "la compilación no es hermética",
	CodeTimestampOutOfBound:   "la marca de tiempo excede el límite temporal",
	CodeProvenanceIncomplete:  "la atestación de procedencia está incompleta",
	CodeBuildNotVerified:      "la compilación no está en estado VERIFIED",

	CodeUnsignedDependency:   "la dependencia no está firmada",
	CodeUnknownKey:           "clave de firma desconocida",
	CodeKeyExpired:           "la clave de firma está caducada",
	CodeSignatureInvalid:     "la firma no es válida",
	CodeCVEThresholdExceeded: "la severidad del CVE alcanza el umbral configurado",
	CodeLicenseNotAllowed:    "la licencia no está en la lista permitida",
	CodeScanDegraded:         "el análisis de vulnerabilidades se degradó a datos locales",

	CodeAttestationTypeNotAllowed: "tipo de atestación no permitido",
	CodeAttestationRequired:       "la ejecución carece de atestación con raíz de hardware",
	CodeAttestationExpired:        "la atestación ha caducado",
	CodeSVNBelowFloor:             "el número de versión de seguridad es inferior al mínimo",
	CodeMemoryUnsafe:              "la ejecución no demuestra seguridad de memoria",
	CodeCollateralUnverified:      "no se pudo verificar el material colateral de la atestación",

	CodeProvenanceMissing:          "el artefacto carece de atestación de procedencia",
	CodeProvenanceSignatureInvalid: "la firma de la procedencia no es válida",
	CodeSubjectDigestMismatch:      "el hash del artefacto no aparece entre los sujetos de la procedencia",
	CodeMaterialsInvalid:           "los materiales de la procedencia no son válidos",
	CodeArtifactSignatureInvalid:   "la firma del artefacto no es válida",
	CodeNotReproducible:            "la compilación no está marcada como reproducible",

	CodeChainIntegrityFailed:   "la integridad de la cadena de hashes está rota",
	CodeLogContainmentFailed:   "el registro no contiene todos los hashes requeridos",
	CodeLogTimestampOutOfBound: "una entrada del registro excede el límite temporal",
	CodeLogSignatureInvalid:    "la firma de una entrada del registro no es válida",
	CodeNoLogsProvided:         "no se proporcionó ningún registro inmutable",
	CodeNoSatisfyingLog:        "ningún registro candidato satisface la verificación",
}

func LocalizedMessage(code string) string {
	return localizedMessages[code]
}
