package hvac

import "strings"

// =============================================================================
// NOTE KEYWORDS - Substring matching over free-text job and callback notes
// =============================================================================
// Results keep keyword-list order and never repeat a keyword.

var (
	symptomKeywords = []string{
		"not cooling", "not heating", "no heat", "no cool", "loud noise", "strange noise",
		"leaking", "leak", "short cycling", "won't start", "not starting", "intermittent",
		"high bills", "energy bills", "poor airflow", "low airflow", "water damage",
		"strange smell", "burning smell", "overheating", "freezing up", "icing up",
	}

	partKeywords = []string{
		"compressor", "evaporator", "condenser", "fan motor", "blower motor",
		"capacitor", "contactor", "relay", "thermostat", "filter", "coil",
		"refrigerant", "belt", "pulley", "heat exchanger", "txv", "expansion valve",
		"drain line", "ductwork", "electrical", "wiring", "fuse", "breaker",
	}

	actionKeywords = []string{
		"replaced", "repaired", "cleaned", "adjusted", "calibrated", "tested",
		"sealed", "recharged", "lubricated", "tightened", "installed", "upgraded",
		"cleared", "flushed", "balanced", "commissioned", "diagnosed", "inspected",
	}

	emergencyKeywords = []string{
		"emergency", "urgent", "no heat", "no cool", "complete failure",
		"safety", "dangerous", "carbon monoxide", "gas leak", "electrical hazard",
	}

	complexityKeywords = []string{
		"multiple issues", "complex", "difficult", "challenging", "extensive",
		"major repair", "system replacement", "custom", "coordination required",
	}

	ageKeywords = []string{
		"old", "aging", "outdated", "worn", "deteriorated", "end of life",
		"vintage", "legacy", "obsolete", "ancient", "needs replacement",
	}

	efficiencyKeywords = []string{
		"high bills", "energy bills", "inefficient", "poor performance",
		"low efficiency", "wasteful", "upgrade recommended", "energy saving",
	}

	rootCauseKeywords = map[CallbackReason][]string{
		ReasonWorkmanship: {
			"improper installation", "incorrect wiring", "loose connections",
			"inadequate sealing", "poor workmanship", "installation error",
		},
		ReasonPartFailure: {
			"defective part", "premature failure", "manufacturing defect",
			"component failure", "faulty component", "bad part",
		},
		ReasonMisdiagnosis: {
			"missed diagnosis", "incorrect diagnosis", "symptom masking",
			"multiple issues", "complex problem", "underlying issue",
		},
		ReasonDocumentation: {
			"missing documentation", "incomplete notes", "unclear instructions",
			"communication error", "handoff issue", "follow-up missed",
		},
	}
)

func matchKeywords(notes string, keywords []string) []string {
	lower := strings.ToLower(notes)
	found := []string{}
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			found = append(found, k)
		}
	}
	return found
}

func ExtractSymptoms(notes string) []string { return matchKeywords(notes, symptomKeywords) }

func ExtractParts(notes string) []string { return matchKeywords(notes, partKeywords) }

func ExtractActions(notes string) []string { return matchKeywords(notes, actionKeywords) }

// ExtractAgeIndicators finds wording that suggests aging equipment.
func ExtractAgeIndicators(notes string) []string { return matchKeywords(notes, ageKeywords) }

// ExtractEfficiencyConcerns finds wording about energy use or poor performance.
func ExtractEfficiencyConcerns(notes string) []string {
	return matchKeywords(notes, efficiencyKeywords)
}

// IsEmergency reports whether the notes describe an urgent or unsafe call.
func IsEmergency(notes string) bool {
	return len(matchKeywords(notes, emergencyKeywords)) > 0
}

// SummaryKeywords returns up to five keywords: symptoms first, then parts,
// then actions.
func SummaryKeywords(notes string) []string {
	all := ExtractSymptoms(notes)
	all = append(all, ExtractParts(notes)...)
	all = append(all, ExtractActions(notes)...)
	if len(all) > 5 {
		all = all[:5]
	}
	return all
}

// RootCause returns the first known cause phrase for the callback reason
// found in the notes, or "General <reason>" when none matches.
func RootCause(notes string, reason CallbackReason) string {
	if found := matchKeywords(notes, rootCauseKeywords[reason]); len(found) > 0 {
		return found[0]
	}
	return "General " + strings.ReplaceAll(string(reason), "_", " ")
}

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// ClassifyComplexity grades a job by hours and wording: more than 8 hours or
// any complexity phrase is complex, more than 4 hours is moderate.
func ClassifyComplexity(notes string, laborHours float64) Complexity {
	switch {
	case laborHours > 8 || len(matchKeywords(notes, complexityKeywords)) > 0:
		return ComplexityComplex
	case laborHours > 4:
		return ComplexityModerate
	}
	return ComplexitySimple
}
