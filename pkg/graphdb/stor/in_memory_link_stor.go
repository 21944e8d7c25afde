package stor

type InMemoryLinkStor struct {
	g *memGraph
}

func NewInMemoryLinkStor(g *memGraph) *InMemoryLinkStor {
	return &InMemoryLinkStor{g: g}
}

func (s *InMemoryLinkStor) ResolveTargets(ownerUUID, name string) ([]string, error) {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	e, err := s.g.get(ownerUUID)
	if err != nil {
		return nil, err
	}

	targets := e.links[name]
	out := make([]string, len(targets))
	copy(out, targets)
	return out, nil
}

func (s *InMemoryLinkStor) SetToOne(ownerUUID, name, targetUUID string) error {
	if targetUUID == "" {
		return s.ReplaceLinks(ownerUUID, name, nil)
	}
	return s.ReplaceLinks(ownerUUID, name, []string{targetUUID})
}

func (s *InMemoryLinkStor) ReplaceLinks(ownerUUID, name string, targetUUIDs []string) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	e, err := s.g.get(ownerUUID)
	if err != nil {
		return err
	}

	for _, targetUUID := range targetUUIDs {
		if _, err := s.g.get(targetUUID); err != nil {
			return err
		}
	}

	targets := make([]string, len(targetUUIDs))
	copy(targets, targetUUIDs)
	e.links[name] = targets
	return nil
}

func (s *InMemoryLinkStor) AddLink(ownerUUID, name, targetUUID string) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	e, err := s.g.get(ownerUUID)
	if err != nil {
		return err
	}

	if _, err := s.g.get(targetUUID); err != nil {
		return err
	}

	for _, target := range e.links[name] {
		if target == targetUUID {
			return nil
		}
	}

	e.links[name] = append(e.links[name], targetUUID)
	return nil
}

func (s *InMemoryLinkStor) RemoveLink(ownerUUID, name, targetUUID string) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	e, err := s.g.get(ownerUUID)
	if err != nil {
		return err
	}

	var kept []string
	for _, target := range e.links[name] {
		if target != targetUUID {
			kept = append(kept, target)
		}
	}
	e.links[name] = kept
	return nil
}
