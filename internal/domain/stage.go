package domain

// Stage is one ordered step of the guided wizard workflow. Stages only
// advance forward along the fixed sequence; there is no skipping and no
// moving backward.
type Stage int

const (
	StageAcknowledge Stage = iota
	StageDiscover
	StageRecommend
	StageConfirm
	StageFetchDocs
	StageIdentity
	StageOutputMode
	StageGenerate
	StageComplete
)

var stageNames = map[Stage]string{
	StageAcknowledge: "acknowledge",
	StageDiscover:    "discover",
	StageRecommend:   "recommend",
	StageConfirm:     "confirm",
	StageFetchDocs:   "fetch_docs",
	StageIdentity:    "identity",
	StageOutputMode:  "output_mode",
	StageGenerate:    "generate",
	StageComplete:    "complete",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the workflow has finished.
func (s Stage) Terminal() bool {
	return s == StageComplete
}

// Next returns the stage that follows s. Complete is a fixed point.
func (s Stage) Next() Stage {
	if s >= StageComplete {
		return StageComplete
	}
	return s + 1
}
