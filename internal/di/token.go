package di

// Token is a typed handle for a service registered in a Container. The type
// parameter carries the concrete or interface type the service resolves to,
// so call sites never need a type assertion.
type Token[T any] struct {
	name string
}

// NewToken creates a token with a unique service name. Names are
// conventionally "<context>.<Service>" for public services and
// "<context>:<service>" for module-private ones.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registry name backing the token.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed factory for the token's service.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(token.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the token's service with its static type.
func GetToken[T any](sr ServiceRegistry, token Token[T]) T {
	return sr.Get(token.name).(T)
}
