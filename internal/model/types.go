// Package model defines shared data structures.
package model

import "time"

// Step identifies the active kiosk step.
type Step string

// Kiosk steps in flow order.
const (
	StepSwingFirst    Step = "swing-first"
	StepSolutionVideo Step = "solution-video"
	StepSwingSecond   Step = "swing-second"
	StepSolutionChart Step = "solution-chart"
	StepComplete      Step = "complete"
)

// IsSwing reports whether the step runs a measurement phase.
func (s Step) IsSwing() bool {
	return s == StepSwingFirst || s == StepSwingSecond
}

// Phase identifies a collector sub-phase on a measurement screen.
type Phase string

// Collector sub-phases.
const (
	PhaseIdle     Phase = "idle"
	PhaseAnnounce Phase = "announce"
	PhaseCollect  Phase = "collect"
	PhaseFinalize Phase = "finalize"
)

// Config defines kiosk session settings.
type Config struct {
	Shots                 int
	AnnounceDelay         time.Duration
	TickInterval          time.Duration
	FinalizeDelay         time.Duration
	TargetDistance        float64
	DirectionalMultiplier float64
}

// StatsConfig defines filters and options for archive reporting.
type StatsConfig struct {
	SeriesID    string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SwingMeasurement is one shot's readings. Direction and Lateral are signed,
// negative is left.
type SwingMeasurement struct {
	ShotIndex   int       `json:"shotIndex"`
	ClubSpeed   float64   `json:"clubSpeed"`
	BallSpeed   float64   `json:"ballSpeed"`
	Distance    float64   `json:"distance"`
	LaunchAngle float64   `json:"launchAngle"`
	Spin        float64   `json:"spin"`
	Direction   float64   `json:"direction"`
	Lateral     float64   `json:"lateral"`
	SideSpin    float64   `json:"sideSpin"`
	BackSpin    float64   `json:"backSpin"`
	BallFlight  string    `json:"ballFlight"`
	CapturedAt  time.Time `json:"capturedAt"`
}

// Averages holds per-metric means for a completed phase.
type Averages struct {
	ClubSpeed   float64 `json:"clubSpeed"`
	BallSpeed   float64 `json:"ballSpeed"`
	Distance    float64 `json:"distance"`
	LaunchAngle float64 `json:"launchAngle"`
	Spin        float64 `json:"spin"`
}

// SwingData captures a completed measurement phase.
type SwingData struct {
	SwingNumber  int                `json:"swingNumber"`
	Step         Step               `json:"step"`
	Measurements []SwingMeasurement `json:"measurements"`
	Averages     Averages           `json:"averages"`
	CompletedAt  time.Time          `json:"completedAt"`
}

// Clone returns a deep copy.
func (d SwingData) Clone() SwingData {
	out := d
	out.Measurements = append([]SwingMeasurement(nil), d.Measurements...)
	return out
}

// Profile describes the golfer picked on the setup screen.
type Profile struct {
	Gender   string `json:"gender,omitempty"`
	AgeRange string `json:"ageRange,omitempty"`
	Handicap string `json:"handicap,omitempty"`
	Club     string `json:"club,omitempty"`
}

// Profile option lists offered by the setup screen.
var (
	Genders        = []string{"male", "female"}
	AgeRanges      = []string{"15-19", "20-29", "30-32", "33-35", "36-39", "40-44", "45-49", "60-69", "70-79"}
	HandicapRanges = []string{"0-4.9", "5-9.9", "10-14.9", "15-19.9", "20-24.9", "25-29.9", "30+"}
	ClubTypes      = []string{"driver", "wood3", "utility", "iron4", "iron5", "iron6", "iron7", "iron8", "iron9"}
)

// SolutionVideo is a recommended practice video.
type SolutionVideo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	VideoURL  string `json:"videoUrl"`
	Category  string `json:"category"`
}

// Problem is a detected swing problem and its share of the analysed shots.
type Problem struct {
	Title      string  `json:"title"`
	Percentage float64 `json:"percentage"`
}

// Improvement holds expected or measured improvements in percent.
type Improvement struct {
	Distance    float64 `json:"distance"`
	Accuracy    float64 `json:"accuracy"`
	Consistency float64 `json:"consistency"`
}

// SolutionData is the problem classification and recommended media for a series.
type SolutionData struct {
	ProblemType        string          `json:"problemType"`
	ProblemDescription string          `json:"problemDescription"`
	Improvement        *Improvement    `json:"improvementPercentage,omitempty"`
	Problems           []Problem       `json:"problems"`
	Videos             []SolutionVideo `json:"videos"`
}

// SwingSubmission is a completed phase sent to the backend.
type SwingSubmission struct {
	SeriesID string    `json:"seriesId"`
	Profile  Profile   `json:"profile"`
	Swing    SwingData `json:"swing"`
}

// SwingAggregate summarizes an archived swing for reporting.
type SwingAggregate struct {
	ID          int64
	SeriesID    string
	SwingNumber int
	Step        Step
	CompletedAt time.Time
	Averages    Averages
	Club        string
}
