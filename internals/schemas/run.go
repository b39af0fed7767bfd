package schemas

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// RunResult is what a finished pipeline run produced. PageLive and Notified
// record best-effort outcomes: a run can succeed with either set to false.
type RunResult struct {
	RepoName  string `json:"repo_name,omitempty"`
	RepoURL   string `json:"repo_url,omitempty"`
	CommitSHA string `json:"commit_sha,omitempty"`
	PagesURL  string `json:"pages_url,omitempty"`
	PageLive  bool   `json:"page_live"`
	Notified  bool   `json:"notified"`
}

type RunResponse struct {
	RunID      string     `json:"run_id"`
	Task       string     `json:"task"`
	Status     RunStatus  `json:"status"`
	CreatedAt  string     `json:"created_at"`
	StartedAt  string     `json:"started_at,omitempty"`
	FinishedAt string     `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	Result     *RunResult `json:"result,omitempty"`
}

type SubmissionAck struct {
	Status string `json:"status"`
	Task   string `json:"task"`
	Round  int    `json:"round"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Mode       string `json:"mode"`
	GithubUser string `json:"github_user"`
}

// NotificationPayload is posted verbatim to the caller's evaluation URL.
type NotificationPayload struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}
