package provider

import "context"

// Initializable backends load something before their first request, such
// as a model inside a sidecar.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable backends release what Init acquired.
type Closeable interface {
	Close(ctx context.Context) error
}

// Init runs p's Init if it has one.
func Init(ctx context.Context, p any) error {
	i, ok := p.(Initializable)
	if !ok {
		return nil
	}
	return i.Init(ctx)
}

// Close runs p's Close if it has one.
func Close(ctx context.Context, p any) error {
	c, ok := p.(Closeable)
	if !ok {
		return nil
	}
	return c.Close(ctx)
}
