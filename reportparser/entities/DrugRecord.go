package entities

// DrugRecord is the canonical, flattened view of one drug in a pharmacogenomic report.
// Every string field is present; missing source values become "".
type DrugRecord struct {
	Drug            string `json:"drug"`
	Gene            string `json:"gene"`
	Diplotype       string `json:"diplotype"`
	Phenotype       string `json:"phenotype"`
	Interaction     string `json:"interaction"`
	Recommendation  string `json:"recommendation"`
	Category        string `json:"category"`
	DrugClass       string `json:"drugClass"`
	GeneDescription string `json:"geneDescription"`
	URLs            URLs   `json:"urls"`
}

type URLs struct {
	DrugBank  string `json:"drugBank"`
	Guideline string `json:"guideline"`
}

// Reference is a titled link built from a non-empty URL of a record.
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Severity classifies the record's interaction text.
func (d DrugRecord) Severity() Severity {
	return ClassifySeverity(d.Interaction)
}

// Label is the text shown for the record in a drug picker.
func (d DrugRecord) Label() string {
	category := d.Category
	if category == "" {
		category = "Unknown"
	}
	class := d.DrugClass
	if class == "" {
		class = "Unknown"
	}
	return d.Drug + " (" + category + ", " + class + ")"
}

// References lists the record's links, skipping empty ones.
func (d DrugRecord) References() []Reference {
	refs := make([]Reference, 0, 2)
	if d.URLs.DrugBank != "" {
		refs = append(refs, Reference{Title: "DrugBank Label", URL: d.URLs.DrugBank})
	}
	if d.URLs.Guideline != "" {
		refs = append(refs, Reference{Title: "CPIC Guideline", URL: d.URLs.Guideline})
	}
	return refs
}
