package game

type LogKind string

const (
	LogTurn          LogKind = "turn"
	LogMove          LogKind = "move"
	LogDamage        LogKind = "damage"
	LogCritical      LogKind = "critical"
	LogEffectiveness LogKind = "effectiveness"
	LogMiss          LogKind = "miss"
	LogFail          LogKind = "fail"
	LogStatus        LogKind = "status"
	LogCureStatus    LogKind = "curestatus"
	LogCant          LogKind = "cant"
	LogHeal          LogKind = "heal"
	LogSwitch        LogKind = "switch"
	LogFaint         LogKind = "faint"
	LogMechanic      LogKind = "mechanic"
	LogMechanicEnd   LogKind = "mechanic_end"
	LogWeather       LogKind = "weather"
	LogBoost         LogKind = "boost"
	LogWin           LogKind = "win"
	LogTie           LogKind = "tie"
)

// LogEntry is one structured battle event. Which fields are set depends on
// Kind; Cause names what triggered indirect effects ("brn", "Life Orb",
// "Drizzle", "recoil").
type LogEntry struct {
	Kind          LogKind      `json:"kind"`
	Turn          int          `json:"turn"`
	Side          Side         `json:"side"`
	Pokemon       string       `json:"pokemon,omitempty"`
	Target        string       `json:"target,omitempty"`
	Move          string       `json:"move,omitempty"`
	Amount        int          `json:"amount,omitempty"`
	HP            int          `json:"hp,omitempty"`
	MaxHP         int          `json:"maxHp,omitempty"`
	Status        Status       `json:"status,omitempty"`
	Mechanic      MechanicKind `json:"mechanic,omitempty"`
	Effectiveness float64      `json:"effectiveness,omitempty"`
	Weather       Weather      `json:"weather,omitempty"`
	Stat          string       `json:"stat,omitempty"`
	Stage         int          `json:"stage,omitempty"`
	Cause         string       `json:"cause,omitempty"`
}
