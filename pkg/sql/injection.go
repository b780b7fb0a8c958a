package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a question that looks like a SQL injection payload.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Input       string
}

// CheckQuestionForInjection screens a natural-language question with
// libinjection before it is put into a prompt. Returns nil for clean input.
//
// Plain questions can trip the detector (for example a name with an
// apostrophe), so callers log and count a hit instead of rejecting.
//
//	result := CheckQuestionForInjection("list all employees hired after 2020")
//	// result == nil
//
//	result = CheckQuestionForInjection("1' OR '1'='1")
//	// result.IsSQLi == true
func CheckQuestionForInjection(question string) *InjectionCheckResult {
	if question == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(question)
	if !isSQLi {
		return nil
	}

	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Input:       question,
	}
}
