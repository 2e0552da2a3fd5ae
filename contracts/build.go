package contracts

import "time"

// Pair is a generic name/value attribute attached to builds, reports and
// tests.
type Pair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Step is a timed phase of a build or test.
type Step struct {
	Name      string     `json:"name"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// Commit references a source revision that went into a build.
type Commit struct {
	ID     string     `json:"commitId"`
	URL    string     `json:"url,omitempty"`
	Author string     `json:"author,omitempty"`
	Date   *time.Time `json:"dateCommitted,omitempty"`
}

// Build is the record behind create_build, update_build and run_analysis.
// Create requires a name and a start date; update and analysis messages are
// partial records identified by id or name.
type Build struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Status      string     `json:"status,omitempty"`
	Description string     `json:"description,omitempty"`
	Criterias   []Pair     `json:"criterias,omitempty"`
	Infos       []Pair     `json:"infos,omitempty"`
	Reports     []Pair     `json:"reports,omitempty"`
	Steps       []Step     `json:"steps,omitempty"`
	Commits     []Commit   `json:"commits,omitempty"`
	Override    bool       `json:"override,omitempty"`

	CustomFormatEnabled bool   `json:"isCustomFormatEnabled,omitempty"`
	CustomFormat        string `json:"customFormat,omitempty"`
	CustomEntry         string `json:"customEntry,omitempty"`

	ScreenshotURL    string            `json:"screenshotURL,omitempty"`
	CustomAttributes map[string]string `json:"customAttributes,omitempty"`
}

// BuildOption sets an optional Build field.
type BuildOption func(*Build)

// WithBuildID sets the build identifier.
func WithBuildID(id string) BuildOption {
	return func(b *Build) { b.ID = id }
}

// WithBuildEndDate sets the build end date.
func WithBuildEndDate(t time.Time) BuildOption {
	return func(b *Build) { u := t.UTC(); b.EndDate = &u }
}

// WithBuildStatus sets the build status.
func WithBuildStatus(status string) BuildOption {
	return func(b *Build) { b.Status = status }
}

// WithBuildDescription sets the build description.
func WithBuildDescription(desc string) BuildOption {
	return func(b *Build) { b.Description = desc }
}

// WithBuildCriterias sets the build criteria pairs.
func WithBuildCriterias(criterias []Pair) BuildOption {
	return func(b *Build) { b.Criterias = criterias }
}

// WithBuildInfos sets the build info pairs.
func WithBuildInfos(infos []Pair) BuildOption {
	return func(b *Build) { b.Infos = infos }
}

// WithBuildReports sets the report references attached to the build.
func WithBuildReports(reports []Pair) BuildOption {
	return func(b *Build) { b.Reports = reports }
}

// WithBuildSteps sets the build steps.
func WithBuildSteps(steps []Step) BuildOption {
	return func(b *Build) { b.Steps = steps }
}

// WithBuildCommits sets the commits that went into the build.
func WithBuildCommits(commits []Commit) BuildOption {
	return func(b *Build) { b.Commits = commits }
}

// WithBuildOverride marks the build as overriding previously analyzed
// results.
func WithBuildOverride(override bool) BuildOption {
	return func(b *Build) { b.Override = override }
}

// WithBuildCustomFormat enables a custom report format for the build.
func WithBuildCustomFormat(format, entry string) BuildOption {
	return func(b *Build) {
		b.CustomFormatEnabled = true
		b.CustomFormat = format
		b.CustomEntry = entry
	}
}

// WithBuildScreenshotURL attaches a screenshot link to the build.
func WithBuildScreenshotURL(url string) BuildOption {
	return func(b *Build) { b.ScreenshotURL = url }
}

// WithBuildAttributes sets free-form custom attributes.
func WithBuildAttributes(attrs map[string]string) BuildOption {
	return func(b *Build) { b.CustomAttributes = attrs }
}

// NewBuild constructs a build record for create_build and validates the
// required fields before anything touches the network.
func NewBuild(name string, startDate time.Time, opts ...BuildOption) (*Build, error) {
	start := startDate.UTC()
	b := &Build{
		Name:      name,
		StartDate: &start,
	}

	for _, opt := range opts {
		opt(b)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate enforces the create_build required fields.
func (b *Build) Validate() error {
	if b.Name == "" {
		return invalidArgf("build name is required")
	}
	if b.StartDate == nil || b.StartDate.IsZero() {
		return invalidArgf("build startDate is required")
	}
	return validateCustomFormat(b.CustomFormatEnabled, b.CustomFormat)
}

// ValidateRef checks that a partial build carries at least one identifying
// field for update and analysis messages.
func (b *Build) ValidateRef() error {
	if b.ID == "" && b.Name == "" {
		return invalidArgf("at least one of build id and name is required")
	}
	return nil
}
