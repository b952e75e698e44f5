package seed

// Entry is one source in a seed file.
type Entry struct {
	SourceID string `yaml:"source_id"` // id, slug or full group URL
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"` // defaults to facebook
	Enabled  *bool  `yaml:"enabled"`  // nil keeps the stored state
}

// File is the root structure of a sources seed:
//
//	sources:
//	  - source_id: https://www.facebook.com/groups/golangjobs/
//	    name: Go Jobs
//	  - source_id: https://example.com/jobs.rss
//	    provider: rss
//	    enabled: false
type File struct {
	Sources []Entry `yaml:"sources"`
}
