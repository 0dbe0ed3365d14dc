// internal/stages/convert/mappings.go
package convert

import (
	"regexp"
	"strings"
)

// entityMapping maps a generic term to its BI-domain candidates. The first
// candidate is the one substituted; the rest document accepted vocabulary and
// feed the flattened term list used for context detection.
type entityMapping struct {
	Term       string
	Candidates []string
	re         *regexp.Regexp
}

// entityMappings is ordered: replacements apply top to bottom, so earlier
// entries win when terms overlap (e.g. "total" before "tonnage").
var entityMappings = []entityMapping{
	// Generic BI entities
	{Term: "departments", Candidates: []string{"publishers", "advertisers", "bidders", "campaigns"}},
	{Term: "employees", Candidates: []string{"users", "customers", "viewers", "clicks"}},
	{Term: "budget", Candidates: []string{"revenue", "spend", "cost", "budget"}},
	{Term: "companies", Candidates: []string{"publishers", "advertisers", "platforms", "networks"}},
	{Term: "schools", Candidates: []string{"websites", "apps", "channels", "sites"}},
	{Term: "students", Candidates: []string{"users", "visitors", "customers", "audience"}},
	{Term: "customers", Candidates: []string{"users", "viewers", "clients", "audience"}},
	{Term: "products", Candidates: []string{"ads", "campaigns", "creatives", "placements"}},
	{Term: "sales", Candidates: []string{"impressions", "clicks", "conversions", "revenue"}},
	{Term: "orders", Candidates: []string{"requests", "bids", "impressions", "clicks"}},
	{Term: "payments", Candidates: []string{"revenue", "spend", "cost", "payments"}},
	{Term: "branches", Candidates: []string{"locations", "regions", "markets", "territories"}},
	{Term: "ships", Candidates: []string{"campaigns", "ads", "creatives", "placements"}},
	{Term: "films", Candidates: []string{"ads", "videos", "creatives", "content"}},
	{Term: "movies", Candidates: []string{"ads", "videos", "creatives", "content"}},
	{Term: "books", Candidates: []string{"ads", "creatives", "content", "materials"}},
	{Term: "sports", Candidates: []string{"campaigns", "ads", "activities", "events"}},
	{Term: "games", Candidates: []string{"campaigns", "ads", "activities", "events"}},
	{Term: "directors", Candidates: []string{"managers", "leaders", "operators", "controllers"}},

	// Generic BI measures
	{Term: "count", Candidates: []string{"total", "count", "number", "sum"}},
	{Term: "total", Candidates: []string{"total", "sum", "count", "number"}},
	{Term: "average", Candidates: []string{"average", "mean", "avg", "typical"}},
	{Term: "maximum", Candidates: []string{"maximum", "highest", "peak", "top"}},
	{Term: "minimum", Candidates: []string{"minimum", "lowest", "bottom", "least"}},
	{Term: "sum", Candidates: []string{"sum", "total", "count", "number"}},

	// Generic BI dimensions
	{Term: "name", Candidates: []string{"name", "title", "label", "identifier"}},
	{Term: "type", Candidates: []string{"type", "category", "classification", "group"}},
	{Term: "status", Candidates: []string{"status", "state", "condition", "phase"}},
	{Term: "location", Candidates: []string{"location", "region", "area", "market"}},
	{Term: "date", Candidates: []string{"date", "time", "period", "duration"}},
	{Term: "year", Candidates: []string{"year", "period", "timeframe", "duration"}},
	{Term: "month", Candidates: []string{"month", "period", "timeframe", "duration"}},
	{Term: "day", Candidates: []string{"day", "date", "time", "period"}},
	{Term: "age", Candidates: []string{"age", "duration", "period", "time"}},
	{Term: "rank", Candidates: []string{"rank", "position", "order", "level"}},
	{Term: "value", Candidates: []string{"value", "amount", "quantity", "measure"}},
	{Term: "amount", Candidates: []string{"amount", "value", "quantity", "measure"}},
	{Term: "price", Candidates: []string{"price", "cost", "value", "amount"}},
	{Term: "cost", Candidates: []string{"cost", "price", "value", "amount"}},
	{Term: "enrollment", Candidates: []string{"engagement", "participation", "involvement", "activity"}},
	{Term: "population", Candidates: []string{"audience", "users", "viewers", "participants"}},
	{Term: "market_value", Candidates: []string{"revenue", "value", "worth", "performance"}},
	{Term: "tonnage", Candidates: []string{"volume", "capacity", "size", "amount"}},
	{Term: "nationality", Candidates: []string{"origin", "source", "location", "region"}},
	{Term: "headquarters", Candidates: []string{"location", "region", "market", "area"}},
	{Term: "industry", Candidates: []string{"category", "type", "sector", "domain"}},
	{Term: "affiliation", Candidates: []string{"association", "connection", "relationship", "partnership"}},
	{Term: "foundation", Candidates: []string{"creation", "start", "beginning", "launch"}},
	{Term: "establishment", Candidates: []string{"creation", "start", "beginning", "launch"}},
	{Term: "creation", Candidates: []string{"creation", "start", "beginning", "launch"}},
	{Term: "birth", Candidates: []string{"creation", "start", "beginning", "launch"}},
	{Term: "born", Candidates: []string{"created", "started", "launched", "established"}},
	{Term: "acting", Candidates: []string{"temporary", "interim", "provisional", "acting"}},
	{Term: "temporary", Candidates: []string{"temporary", "interim", "provisional", "acting"}},
	{Term: "permanent", Candidates: []string{"permanent", "fixed", "stable", "established"}},
	{Term: "public", Candidates: []string{"public", "open", "accessible", "available"}},
	{Term: "private", Candidates: []string{"private", "restricted", "exclusive", "limited"}},
	{Term: "scholarship", Candidates: []string{"premium", "preferred", "priority", "special"}},
	{Term: "tryout", Candidates: []string{"test", "trial", "evaluation", "assessment"}},
	{Term: "decision", Candidates: []string{"result", "outcome", "status", "state"}},
	{Term: "position", Candidates: []string{"role", "function", "position", "category"}},
	{Term: "striker", Candidates: []string{"primary", "main", "key", "important"}},
	{Term: "goalkeeper", Candidates: []string{"secondary", "support", "backup", "auxiliary"}},
	{Term: "defender", Candidates: []string{"secondary", "support", "backup", "auxiliary"}},
	{Term: "midfielder", Candidates: []string{"secondary", "support", "backup", "auxiliary"}},
	{Term: "forward", Candidates: []string{"primary", "main", "key", "important"}},
	{Term: "coach", Candidates: []string{"manager", "leader", "supervisor", "controller"}},
	{Term: "team", Candidates: []string{"group", "team", "unit", "collective"}},
	{Term: "league", Candidates: []string{"category", "group", "class", "division"}},
	{Term: "season", Candidates: []string{"period", "timeframe", "duration", "cycle"}},
	{Term: "match", Candidates: []string{"event", "activity", "session", "engagement"}},
	{Term: "game", Candidates: []string{"event", "activity", "session", "engagement"}},
	{Term: "tournament", Candidates: []string{"event", "activity", "session", "engagement"}},
	{Term: "competition", Candidates: []string{"event", "activity", "session", "engagement"}},
	{Term: "championship", Candidates: []string{"event", "activity", "session", "engagement"}},
	{Term: "winner", Candidates: []string{"winner", "leader", "top", "best"}},
	{Term: "loser", Candidates: []string{"loser", "bottom", "worst", "least"}},
	{Term: "score", Candidates: []string{"score", "rating", "performance", "result"}},
	{Term: "goal", Candidates: []string{"goal", "target", "objective", "aim"}},
	{Term: "assist", Candidates: []string{"assist", "support", "help", "aid"}},
	{Term: "red_card", Candidates: []string{"penalty", "violation", "issue", "problem"}},
	{Term: "yellow_card", Candidates: []string{"warning", "caution", "alert", "notice"}},
	{Term: "foul", Candidates: []string{"violation", "penalty", "issue", "problem"}},
	{Term: "corner", Candidates: []string{"corner", "edge", "boundary", "limit"}},
	{Term: "penalty", Candidates: []string{"penalty", "violation", "issue", "problem"}},
	{Term: "substitution", Candidates: []string{"change", "replacement", "switch", "update"}},
	{Term: "injury", Candidates: []string{"issue", "problem", "disruption", "interruption"}},
	{Term: "suspension", Candidates: []string{"suspension", "pause", "stop", "halt"}},
	{Term: "transfer", Candidates: []string{"transfer", "move", "change", "shift"}},
	{Term: "contract", Candidates: []string{"contract", "agreement", "deal", "arrangement"}},
	{Term: "salary", Candidates: []string{"salary", "payment", "compensation", "reward"}},
	{Term: "bonus", Candidates: []string{"bonus", "reward", "incentive", "benefit"}},
	{Term: "commission", Candidates: []string{"commission", "fee", "charge", "cost"}},
	{Term: "tax", Candidates: []string{"tax", "fee", "charge", "cost"}},
	{Term: "insurance", Candidates: []string{"insurance", "protection", "coverage", "safety"}},
	{Term: "medical", Candidates: []string{"medical", "health", "care", "treatment"}},
	{Term: "physical", Candidates: []string{"physical", "health", "fitness", "condition"}},
	{Term: "mental", Candidates: []string{"mental", "psychological", "emotional", "cognitive"}},
	{Term: "technical", Candidates: []string{"technical", "skill", "ability", "capability"}},
	{Term: "tactical", Candidates: []string{"tactical", "strategic", "planning", "approach"}},
}

// biVocabulary is the flattened, lowercased set of every candidate term. A
// question containing none of these gets BI context injected.
var biVocabulary []string

func init() {
	for i := range entityMappings {
		m := &entityMappings[i]
		m.re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(m.Term))
		for _, c := range m.Candidates {
			biVocabulary = append(biVocabulary, strings.ToLower(c))
		}
	}
}

// measureRenames maps generic measure names to BI measure names.
var measureRenames = map[string]string{
	"Count": "Total",
	"Sum":   "Total",
	"Max":   "Maximum",
	"Min":   "Minimum",
}

// dimensionRenames maps generic dimension names to BI dimension names.
var dimensionRenames = map[string]string{
	"Geographic":  "Region",
	"Temporal":    "Time",
	"Categorical": "Category",
}

// phraseRemaps rewrites unmatched-intent phrases that survived question
// conversion into BI vocabulary.
var phraseRemaps = []struct {
	From []string
	To   string
}{
	{From: []string{"departments", "employees", "customers", "students"}, To: "users"},
	{From: []string{"budget", "sales", "revenue"}, To: "revenue"},
	{From: []string{"companies", "schools", "organizations"}, To: "publishers"},
}
