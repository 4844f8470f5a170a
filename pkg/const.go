package pkg

const (
	HeaderTraceId   string = "X-Trace-Id"
	HeaderRequestId string = "X-Request-Id"
)

const (
	TraceId   string = "trace_id"
	RequestId string = "request_id"
)

// ModelStage tags which registry artifact version is authoritative for a
// given environment.
type ModelStage string

const (
	StageNone       ModelStage = "None"
	StageStaging    ModelStage = "Staging"
	StageProduction ModelStage = "Production"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)
