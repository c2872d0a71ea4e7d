package report

// Summary is the cumulative cross-run record. Invariants maintained by
// Merge/Recount: Changes holds no two events with equal identity,
// TotalHealingAttempts == len(Changes), and SuccessfulHealing +
// FailedHealing == TotalHealingAttempts.
type Summary struct {
	TotalTests           int     `json:"totalTests"`
	TotalHealingAttempts int     `json:"totalHealingAttempts"`
	SuccessfulHealing    int     `json:"successfulHealing"`
	FailedHealing        int     `json:"failedHealing"`
	Timestamp            string  `json:"timestamp"`
	Changes              []Event `json:"changes"`
}

// Merge appends events whose identity key is not yet present, preserving
// input order. It returns how many were added; the rest were duplicates.
// Counts are not recomputed here — call Recount once after the last merge.
func (s *Summary) Merge(events []Event) int {
	seen := make(map[Identity]struct{}, len(s.Changes))
	for _, e := range s.Changes {
		seen[e.Key()] = struct{}{}
	}

	added := 0
	for _, e := range events {
		k := e.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		s.Changes = append(s.Changes, e)
		added++
	}
	return added
}

// Recount derives every aggregate field from Changes and stamps the summary.
func (s *Summary) Recount() {
	s.TotalHealingAttempts = len(s.Changes)
	s.SuccessfulHealing = 0
	s.FailedHealing = 0
	tests := make(map[string]struct{})
	for _, e := range s.Changes {
		if e.Success {
			s.SuccessfulHealing++
		} else {
			s.FailedHealing++
		}
		tests[e.TestName] = struct{}{}
	}
	s.TotalTests = len(tests)
	s.Timestamp = NowUTC()
}

// Mapping is one live original→healed pair derived from the summary.
type Mapping struct {
	OriginalLocator string `json:"originalLocator"`
	HealedLocator   string `json:"healedLocator"`
}

// LiveMappings indexes successful events by original locator in file order,
// last write wins. This is exactly what the candidate cache seeds from.
func (s *Summary) LiveMappings() []Mapping {
	idx := make(map[string]int)
	var out []Mapping
	for _, e := range s.Changes {
		if !e.Success || e.HealedLocator == "" {
			continue
		}
		if i, ok := idx[e.OriginalLocator]; ok {
			out[i].HealedLocator = e.HealedLocator
			continue
		}
		idx[e.OriginalLocator] = len(out)
		out = append(out, Mapping{OriginalLocator: e.OriginalLocator, HealedLocator: e.HealedLocator})
	}
	return out
}
