package contracts

import "time"

// Report is the record behind create_report and update_report. A report
// belongs to a build; create requires a name plus at least one of buildId and
// buildName.
type Report struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name,omitempty"`
	BuildID     string     `json:"buildId,omitempty"`
	BuildName   string     `json:"buildName,omitempty"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Status      string     `json:"status,omitempty"`
	Logs        []string   `json:"logs,omitempty"`

	CustomFormatEnabled bool   `json:"isCustomFormatEnabled,omitempty"`
	CustomFormat        string `json:"customFormat,omitempty"`
	CustomEntry         string `json:"customEntry,omitempty"`

	ScreenshotURL    string            `json:"screenshotURL,omitempty"`
	CustomAttributes map[string]string `json:"customAttributes,omitempty"`
}

// ReportOption sets an optional Report field.
type ReportOption func(*Report)

// WithReportID sets the report identifier.
func WithReportID(id string) ReportOption {
	return func(r *Report) { r.ID = id }
}

// WithReportDescription sets the report description.
func WithReportDescription(desc string) ReportOption {
	return func(r *Report) { r.Description = desc }
}

// WithReportStartDate sets the report start date.
func WithReportStartDate(t time.Time) ReportOption {
	return func(r *Report) { u := t.UTC(); r.StartDate = &u }
}

// WithReportEndDate sets the report end date.
func WithReportEndDate(t time.Time) ReportOption {
	return func(r *Report) { u := t.UTC(); r.EndDate = &u }
}

// WithReportStatus sets the report status.
func WithReportStatus(status string) ReportOption {
	return func(r *Report) { r.Status = status }
}

// WithReportLogs sets the report log links.
func WithReportLogs(logs []string) ReportOption {
	return func(r *Report) { r.Logs = logs }
}

// WithReportCustomFormat enables a custom report format.
func WithReportCustomFormat(format, entry string) ReportOption {
	return func(r *Report) {
		r.CustomFormatEnabled = true
		r.CustomFormat = format
		r.CustomEntry = entry
	}
}

// WithReportScreenshotURL attaches a screenshot link to the report.
func WithReportScreenshotURL(url string) ReportOption {
	return func(r *Report) { r.ScreenshotURL = url }
}

// WithReportAttributes sets free-form custom attributes.
func WithReportAttributes(attrs map[string]string) ReportOption {
	return func(r *Report) { r.CustomAttributes = attrs }
}

// NewReport constructs a report record for create_report. Either buildID or
// buildName may be empty, not both.
func NewReport(name, buildID, buildName string, opts ...ReportOption) (*Report, error) {
	r := &Report{
		Name:      name,
		BuildID:   buildID,
		BuildName: buildName,
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate enforces the create_report required fields.
func (r *Report) Validate() error {
	if r.Name == "" {
		return invalidArgf("report name is required")
	}
	if r.BuildID == "" && r.BuildName == "" {
		return invalidArgf("at least one of buildId and buildName is required")
	}
	return validateCustomFormat(r.CustomFormatEnabled, r.CustomFormat)
}

// ValidateRef checks that a partial report carries enough identity for an
// update: one of id and name, plus one of id, buildId and buildName.
func (r *Report) ValidateRef() error {
	if r.ID == "" && r.Name == "" {
		return invalidArgf("at least one of report id and name is required")
	}
	if r.ID == "" && r.BuildID == "" && r.BuildName == "" {
		return invalidArgf("at least one of buildId and buildName is required")
	}
	return nil
}
