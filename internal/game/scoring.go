package game

import "github.com/acapella/riskhunt/internal/riskhunt"

// Evaluation is the outcome of scoring one click.
type Evaluation struct {
	Hit        bool
	Zone       *riskhunt.RiskZone
	ScoreDelta int
}

// Evaluate scores a click against zones without mutating s. The first zone
// containing the point decides the outcome; if the session already claimed
// it on the current image the click is a miss.
func Evaluate(s *Session, zones riskhunt.ZoneSet, x, y float64) Evaluation {
	z, ok := zones.FindContaining(x, y)
	if !ok || s.HasFound(s.CurrentImageID(), z.ID) {
		return Evaluation{}
	}
	return Evaluation{Hit: true, Zone: &z, ScoreDelta: z.Points}
}
