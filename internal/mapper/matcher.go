package mapper

import (
	"regexp"
	"strings"

	"golang-forecast-engine/internal/schema"
	"golang-forecast-engine/pkg/logger"
)

// Matcher maps source column headers onto a target schema registry. It holds
// only the read-only registry, so a single matcher is safe for concurrent use.
type Matcher struct {
	registry *schema.Registry
	log      logger.Logger
}

// NewMatcher creates a matcher for the given registry
func NewMatcher(registry *schema.Registry) *Matcher {
	return &Matcher{
		registry: registry,
		log:      logger.GetGlobalLogger().WithComponent("field_matcher"),
	}
}

// candidate is one scored (target, tier) option for a source column
type candidate struct {
	target schema.FieldID
	tier   Tier
}

// AutoMap maps source columns one-to-one onto target fields.
//
// Per column, every target field is scored independently and the column keeps
// a ranked candidate list. Global reconciliation then resolves contested
// targets: the strictly higher score wins, exact ties go to the column
// earliest in the input sequence, and losers fall back to their next-best
// unclaimed candidate until assigned or exhausted. Malformed headers never
// error; an unmatched column is simply absent from the result.
func (m *Matcher) AutoMap(sourceColumns []string) *Mapping {
	candidates := make([][]candidate, len(sourceColumns))
	for i, col := range sourceColumns {
		candidates[i] = m.rankCandidates(col)
	}

	// cursor[i] indexes the next candidate column i will propose.
	cursor := make([]int, len(sourceColumns))
	claimedBy := make(map[schema.FieldID]int)

	queue := make([]int, 0, len(sourceColumns))
	for i := range sourceColumns {
		queue = append(queue, i)
	}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]

		for cursor[i] < len(candidates[i]) {
			cand := candidates[i][cursor[i]]

			holder, contested := claimedBy[cand.target]
			if !contested {
				claimedBy[cand.target] = i
				break
			}

			holderCand := candidates[holder][cursor[holder]]
			challengerScore := cand.tier.Confidence()
			holderScore := holderCand.tier.Confidence()

			if challengerScore > holderScore || (challengerScore == holderScore && i < holder) {
				// Evict the weaker (or later-positioned) holder; it resumes
				// from its next candidate.
				claimedBy[cand.target] = i
				cursor[holder]++
				queue = append(queue, holder)
				break
			}

			cursor[i]++
		}
	}

	var entries []Entry
	for i, col := range sourceColumns {
		if cursor[i] >= len(candidates[i]) {
			continue
		}
		cand := candidates[i][cursor[i]]
		if claimedBy[cand.target] != i {
			continue
		}
		entries = append(entries, Entry{
			SourceColumn: col,
			TargetField:  cand.target,
			Confidence:   cand.tier.Confidence(),
			Tier:         cand.tier,
		})
	}

	mapping, err := NewMapping(entries)
	if err != nil {
		// Reconciliation guarantees unique targets; a failure here is a
		// programming error.
		panic(err)
	}

	m.log.WithFields(logger.Fields{
		"source_columns": len(sourceColumns),
		"mapped":         len(entries),
	}).Debug("Auto-mapping complete")

	return mapping
}

// rankCandidates scores a column against every target field and returns the
// viable candidates, best first. Ties keep registry definition order.
func (m *Matcher) rankCandidates(column string) []candidate {
	var ranked []candidate
	for _, field := range m.registry.Fields() {
		tier, ok := m.scoreField(column, &field)
		if !ok {
			continue
		}
		// Insertion sort by descending confidence keeps registry order for
		// equal scores.
		pos := len(ranked)
		for pos > 0 && ranked[pos-1].tier.Confidence() < tier.Confidence() {
			pos--
		}
		ranked = append(ranked, candidate{})
		copy(ranked[pos+1:], ranked[pos:])
		ranked[pos] = candidate{target: field.ID, tier: tier}
	}
	return ranked
}

// scoreField returns the best tier the column achieves against one target
// field, trying tiers strictest first.
func (m *Matcher) scoreField(column string, field *schema.TargetField) (Tier, bool) {
	trimmed := strings.TrimSpace(column)
	for _, alias := range field.ExactAliases {
		if strings.EqualFold(trimmed, strings.TrimSpace(alias)) {
			return TierExact, true
		}
	}

	squashed := squash(column)
	for _, alias := range field.ExactAliases {
		if squashed == squash(alias) {
			return TierNormalized, true
		}
	}
	for _, kw := range field.Keywords {
		if squashed == squash(kw) {
			return TierNormalized, true
		}
	}

	norm := normalize(column)
	best := Tier(-1)
	for _, kw := range field.Keywords {
		kwNorm := normalize(kw)
		if kwNorm == "" {
			continue
		}

		var tier Tier
		switch {
		case strings.HasPrefix(norm, kwNorm+" "):
			tier = TierPrefix
		case strings.HasSuffix(norm, " "+kwNorm):
			tier = TierSuffix
		case strings.Contains(" "+norm+" ", " "+kwNorm+" "):
			tier = TierContains
		case strings.Contains(squashed, squash(kw)):
			tier = TierPartial
		default:
			continue
		}

		if best < 0 || tier.Confidence() > best.Confidence() {
			best = tier
		}
	}

	if best < 0 {
		return 0, false
	}
	return best, true
}

var separatorRun = regexp.MustCompile(`[\s_]+`)

// normalize lowercases, trims, and collapses whitespace/underscore runs into
// a single space, so "Account_Name", "account  name", and "ACCOUNT NAME" are
// equivalent token sequences.
func normalize(s string) string {
	return strings.TrimSpace(separatorRun.ReplaceAllString(strings.ToLower(s), " "))
}

// squash removes separators entirely: "Account_Name" -> "accountname"
func squash(s string) string {
	return separatorRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}
