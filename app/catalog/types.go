package catalog

// Source is one entry of the source catalog. ID is assigned by the database
// when the catalog is registered at startup; the remaining fields come from
// the YAML definition file.
type Source struct {
	ID        int64
	Slug      string
	Name      string
	AdapterID string
	URL       string
	Priority  int
	Active    bool
}

// SourceConfig is the on-disk YAML shape of a source definition.
type SourceConfig struct {
	Slug      string `yaml:"slug"`
	Name      string `yaml:"name"`
	AdapterID string `yaml:"adapter"`
	URL       string `yaml:"url"`
	Priority  int    `yaml:"priority"`
	Active    *bool  `yaml:"active"` // nil means active
}
