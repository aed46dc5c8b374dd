package specdoc

import (
	"time"
)

// Stage names the step of the engine that produced an outcome.
type Stage int

const (
	StageRegister Stage = iota
	StageResolve
	StageRead
	StageParse
	StageBuild
)

func (s Stage) String() string {
	switch s {
	case StageRegister:
		return "register"
	case StageResolve:
		return "resolve"
	case StageRead:
		return "read"
	case StageParse:
		return "parse"
	case StageBuild:
		return "build"
	default:
		return "unknown"
	}
}

// State is the position of one analyze call in its state machine:
//
//	Resolved(spec) -> VersionBound(ruleset) -> Parsed(tree) -> Built(output)
//
// with Failed reachable from every state. Built and Failed are terminal.
type State int

const (
	StatePending State = iota
	StateResolved
	StateVersionBound
	StateParsed
	StateBuilt
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateVersionBound:
		return "version_bound"
	case StateParsed:
		return "parsed"
	case StateBuilt:
		return "built"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends the state machine.
func (s State) Terminal() bool { return s == StateBuilt || s == StateFailed }

// Input is the raw content handed to Analyze.
type Input struct {
	// Extension selects the Reader; "json", ".JSON" and "Json" are equivalent.
	Extension string
	Data      []byte
}

// Result describes one analyze call.
type Result struct {
	RunID     string
	Spec      string
	Version   string
	Extension string
	// Output is the Builder's output; nil unless State is StateBuilt.
	Output []byte
	// Tree is the parsed tree. After a parse failure it holds the partial
	// tree for diagnostics and must not be treated as a valid document.
	Tree *Element
	// State is StateBuilt on success and StateFailed otherwise.
	State State
	// Stage is the last stage entered; on failure, the failing stage.
	Stage    Stage
	Warnings []Warning
	Duration time.Duration
}

// AnalyzeEvent is reported to the Observer once per analyze call.
type AnalyzeEvent struct {
	RunID      string
	Spec       string
	Version    string
	Extension  string
	State      State
	Stage      Stage
	Err        error
	Violations Violations
	Duration   time.Duration
}

// Observer receives analyze outcomes (metrics, tracing). Implementations must
// be safe for concurrent use.
type Observer interface {
	ObserveAnalyze(ev AnalyzeEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev AnalyzeEvent)

func (f ObserverFunc) ObserveAnalyze(ev AnalyzeEvent) { f(ev) }

type nopObserver struct{}

func (nopObserver) ObserveAnalyze(AnalyzeEvent) {}
