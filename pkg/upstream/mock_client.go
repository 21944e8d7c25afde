package upstream

type MockClient struct {
	err      error
	entities map[string]*EntityPayload

	// calls records the method names invoked, in order, so tests can assert
	// on what the committer actually sent upstream.
	calls []string
}

func NewMockClient() *MockClient {
	return &MockClient{entities: make(map[string]*EntityPayload)}
}

func (c *MockClient) SetError(err error) {
	c.err = err
}

func (c *MockClient) Err(err error) *MockClient {
	c.err = err
	return c
}

func (c *MockClient) Calls() []string {
	return c.calls
}

func (c *MockClient) EntitySent(entityUUID string) *EntityPayload {
	return c.entities[entityUUID]
}

func (c *MockClient) GetEntity(entityUUID string) (*EntityPayload, error) {
	c.calls = append(c.calls, "GetEntity")
	if c.err != nil {
		return nil, c.err
	}

	entity, ok := c.entities[entityUUID]
	if !ok {
		return nil, ErrUpstreamAPI
	}

	return entity, nil
}

func (c *MockClient) CreateEntity(entity *EntityPayload) (*EntityPayload, error) {
	c.calls = append(c.calls, "CreateEntity")
	if c.err != nil {
		return nil, c.err
	}

	c.entities[entity.UUID] = entity
	return entity, nil
}

func (c *MockClient) UpdateEntity(entityUUID string, entity *EntityPayload) (*EntityPayload, error) {
	c.calls = append(c.calls, "UpdateEntity")
	if c.err != nil {
		return nil, c.err
	}

	c.entities[entityUUID] = entity
	return entity, nil
}

func (c *MockClient) DeleteEntity(entityUUID string) error {
	c.calls = append(c.calls, "DeleteEntity")
	if c.err != nil {
		return c.err
	}

	delete(c.entities, entityUUID)
	return nil
}
