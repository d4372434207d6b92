package seed

// File is the top-level structure of a seed file: a list of groups (one per
// trip), each holding destinations keyed by name.
//
//	- Italy:
//	    - Rome:
//	        priority: maybe
//	        sights: [Colosseum]
type File []map[string][]map[string]DestinationProps

// DestinationProps are the fields of one seeded destination.
type DestinationProps struct {
	Details  string   `yaml:"details,omitempty"`
	Date     string   `yaml:"date,omitempty"`     // 2006-01-02 or RFC 3339
	Priority string   `yaml:"priority,omitempty"` // 1-3 or meh/maybe/must
	Sights   []string `yaml:"sights,omitempty"`
}
