package search

// synonyms is a closed Russian/English tourism dictionary used to expand a
// query before fuzzy matching. Keys and values are lowercase tokens; a value
// may be a multi-word phrase.
var synonyms = map[string][]string{
	// activities
	"пляж":       {"beach", "море", "sea"},
	"море":       {"sea", "beach", "пляж"},
	"beach":      {"пляж", "море"},
	"sea":        {"море", "пляж"},
	"дайвинг":    {"diving", "snorkel", "сноркелинг"},
	"diving":     {"дайвинг", "snorkel"},
	"снорклинг":  {"snorkeling", "snorkel"},
	"сноркелинг": {"snorkeling", "snorkel"},
	"snorkel":    {"snorkeling", "сноркелинг", "дайвинг"},
	"snorkeling": {"snorkel", "сноркелинг"},
	"водопад":    {"waterfall", "falls"},
	"waterfall":  {"водопад"},
	"остров":     {"island"},
	"острова":    {"islands", "island"},
	"island":     {"остров"},
	"акулы":      {"sharks", "whale shark"},
	"акула":      {"shark", "whale shark"},
	"shark":      {"акула"},
	"каньонинг":  {"canyoneering"},
	"canyoneering": {"каньонинг"},
	"рыбалка":    {"fishing"},
	"fishing":    {"рыбалка"},

	// catalog terms
	"экскурсия": {"tour", "excursion"},
	"экскурсии": {"tours", "excursion"},
	"tour":      {"экскурсия"},
	"excursion": {"экскурсия"},
	"трансфер":  {"transfer"},
	"transfer":  {"трансфер"},
	"отель":     {"hotel"},
	"hotel":     {"отель"},

	// islands
	"себу":     {"cebu"},
	"cebu":     {"себу"},
	"бохол":    {"bohol"},
	"bohol":    {"бохол"},
	"боракай":  {"boracay"},
	"boracay":  {"боракай"},
	"палаван":  {"palawan"},
	"palawan":  {"палаван"},
	"корон":    {"coron"},
	"coron":    {"корон"},
	"моалбоал": {"moalboal"},
	"moalboal": {"моалбоал"},
}

const maxVariants = 12

// Expand returns the query plus variants with dictionary tokens substituted.
// The original query is always first.
func Expand(query string) []string {
	toks := tokens(query)
	out := []string{normalize(query)}
	seen := map[string]struct{}{out[0]: {}}
	for i, tok := range toks {
		alts, ok := synonyms[tok]
		if !ok {
			continue
		}
		for _, alt := range alts {
			v := make([]string, len(toks))
			copy(v, toks)
			v[i] = alt
			q := join(v)
			if _, dup := seen[q]; dup {
				continue
			}
			seen[q] = struct{}{}
			out = append(out, q)
			if len(out) >= maxVariants {
				return out
			}
		}
	}
	return out
}
