package engine

import "time"

// ToggleTentHighlight switches the red outline on booths that have tents.
func (s *Session) ToggleTentHighlight() { s.tentHighlight = !s.tentHighlight }

// TentHighlight reports whether booths with tents are outlined.
func (s *Session) TentHighlight() bool { return s.tentHighlight }

// HideZones takes zones off screen until ZoneHide has passed after now,
// so the booths under them can be checked.
func (s *Session) HideZones(now time.Duration) {
	s.Tick(now)
	s.hideUntil = s.now + s.settings.ZoneHide
}

// Tick advances the session clock to now, which never runs backwards. It
// reports whether zone visibility changed.
func (s *Session) Tick(now time.Duration) bool {
	was := s.ZonesHidden()
	s.now = max(s.now, now)
	return was != s.ZonesHidden()
}

// ZonesHidden reports whether a HideZones is still in effect.
func (s *Session) ZonesHidden() bool { return s.now < s.hideUntil }
