package contracts

import "time"

// Test is the record behind create_test and update_test. A test belongs to a
// report; create requires a name plus at least one of reportId and
// reportName. The id field is system-generated and only meaningful on
// updates.
type Test struct {
	ID          string     `json:"id,omitempty"`
	BuildID     string     `json:"buildId,omitempty"`
	BuildName   string     `json:"buildName,omitempty"`
	ReportID    string     `json:"reportId,omitempty"`
	ReportName  string     `json:"reportName,omitempty"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Status      string     `json:"status,omitempty"`
	Criterias   []Pair     `json:"criterias,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Steps       []Step     `json:"steps,omitempty"`
	Log         string     `json:"log,omitempty"`
	Override    bool       `json:"override,omitempty"`

	CustomFormatEnabled bool   `json:"isCustomFormatEnabled,omitempty"`
	CustomFormat        string `json:"customFormat,omitempty"`
	CustomEntry         string `json:"customEntry,omitempty"`

	JiraTestID    string `json:"jiraTestId,omitempty"`
	JiraReqID     string `json:"jiraReqId,omitempty"`
	ExecutionType string `json:"executionType,omitempty"`

	CustomAttributes map[string]string `json:"customAttributes,omitempty"`

	AuthoredBy     string `json:"authoredBy,omitempty"`
	DateCreated    string `json:"dateCreated,omitempty"`
	ApprovalStatus string `json:"approvalStatus,omitempty"`
	ApprovedBy     string `json:"approvedBy,omitempty"`
	ApprovedDate   string `json:"approvedDate,omitempty"`
	Comments       string `json:"comments,omitempty"`
}

// TestOption sets an optional Test field.
type TestOption func(*Test)

// WithTestID sets the test identifier for updates.
func WithTestID(id string) TestOption {
	return func(t *Test) { t.ID = id }
}

// WithTestBuildRef identifies the build the test belongs to.
func WithTestBuildRef(buildID, buildName string) TestOption {
	return func(t *Test) {
		t.BuildID = buildID
		t.BuildName = buildName
	}
}

// WithTestDescription sets the test description.
func WithTestDescription(desc string) TestOption {
	return func(t *Test) { t.Description = desc }
}

// WithTestStartDate sets the test start date.
func WithTestStartDate(ts time.Time) TestOption {
	return func(t *Test) { u := ts.UTC(); t.StartDate = &u }
}

// WithTestEndDate sets the test end date.
func WithTestEndDate(ts time.Time) TestOption {
	return func(t *Test) { u := ts.UTC(); t.EndDate = &u }
}

// WithTestStatus sets the test status.
func WithTestStatus(status string) TestOption {
	return func(t *Test) { t.Status = status }
}

// WithTestCriterias sets the test criteria pairs.
func WithTestCriterias(criterias []Pair) TestOption {
	return func(t *Test) { t.Criterias = criterias }
}

// WithTestTags sets the test tags.
func WithTestTags(tags []string) TestOption {
	return func(t *Test) { t.Tags = tags }
}

// WithTestSteps sets the test steps.
func WithTestSteps(steps []Step) TestOption {
	return func(t *Test) { t.Steps = steps }
}

// WithTestLog attaches raw log output to the test.
func WithTestLog(log string) TestOption {
	return func(t *Test) { t.Log = log }
}

// WithTestOverride marks the test as overriding a previously analyzed
// result.
func WithTestOverride(override bool) TestOption {
	return func(t *Test) { t.Override = override }
}

// WithTestCustomFormat enables a custom report format for the test.
func WithTestCustomFormat(format, entry string) TestOption {
	return func(t *Test) {
		t.CustomFormatEnabled = true
		t.CustomFormat = format
		t.CustomEntry = entry
	}
}

// WithTestJiraRefs links the test to Jira test and requirement ids.
func WithTestJiraRefs(testID, reqID string) TestOption {
	return func(t *Test) {
		t.JiraTestID = testID
		t.JiraReqID = reqID
	}
}

// WithTestExecutionType sets how the test was executed.
func WithTestExecutionType(execType string) TestOption {
	return func(t *Test) { t.ExecutionType = execType }
}

// WithTestAttributes sets free-form custom attributes.
func WithTestAttributes(attrs map[string]string) TestOption {
	return func(t *Test) { t.CustomAttributes = attrs }
}

// WithTestAuthor records who authored the test and when.
func WithTestAuthor(authoredBy, dateCreated string) TestOption {
	return func(t *Test) {
		t.AuthoredBy = authoredBy
		t.DateCreated = dateCreated
	}
}

// WithTestApproval records the test approval trail.
func WithTestApproval(status, approvedBy, approvedDate string) TestOption {
	return func(t *Test) {
		t.ApprovalStatus = status
		t.ApprovedBy = approvedBy
		t.ApprovedDate = approvedDate
	}
}

// WithTestComments sets reviewer comments.
func WithTestComments(comments string) TestOption {
	return func(t *Test) { t.Comments = comments }
}

// NewTest constructs a test record for create_test. Either reportID or
// reportName may be empty, not both.
func NewTest(name, reportID, reportName string, opts ...TestOption) (*Test, error) {
	t := &Test{
		Name:       name,
		ReportID:   reportID,
		ReportName: reportName,
	}

	for _, opt := range opts {
		opt(t)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate enforces the create_test and update_test required fields.
func (t *Test) Validate() error {
	if t.Name == "" {
		return invalidArgf("test name is required")
	}
	if t.ReportID == "" && t.ReportName == "" {
		return invalidArgf("at least one of reportId and reportName is required")
	}
	return validateCustomFormat(t.CustomFormatEnabled, t.CustomFormat)
}
