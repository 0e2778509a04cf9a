package session

import "strings"

const flashPrefix = "_flash_"

// SetFlash stores a value that survives until it is read once.
func (s *Session) SetFlash(key string, val any) {
	s.SetValue(flashPrefix+key, val)
}

// Flash returns the flash value for key and removes it, or def when absent.
func (s *Session) Flash(key string, def any) any {
	val, ok := s.GetValue(flashPrefix + key)
	if !ok {
		return def
	}
	s.DeleteValue(flashPrefix + key)
	if s.consumed == nil {
		s.consumed = make(map[string]any)
	}
	s.consumed[key] = val
	return val
}

// FlashString is Flash for string messages.
func (s *Session) FlashString(key string) string {
	v, _ := s.Flash(key, "").(string)
	return v
}

// HasFlash reports whether a flash value is pending without consuming it.
func (s *Session) HasFlash(key string) bool {
	_, ok := s.GetValue(flashPrefix + key)
	return ok
}

// KeepFlash puts back the flash values read during this request so they
// are available to the next one. With no keys every consumed value is kept.
func (s *Session) KeepFlash(keys ...string) {
	if len(keys) == 0 {
		for k := range s.consumed {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		if v, ok := s.consumed[k]; ok {
			s.SetValue(flashPrefix+k, v)
			delete(s.consumed, k)
		}
	}
}

// Flashes returns the keys of the pending flash values.
func (s *Session) Flashes() []string {
	var keys []string
	for k := range s.Values {
		if name, ok := strings.CutPrefix(k, flashPrefix); ok {
			keys = append(keys, name)
		}
	}
	return keys
}
