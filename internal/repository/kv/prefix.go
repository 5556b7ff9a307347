package kv

import "context"

type prefixed struct {
	repo   Repository
	prefix string
}

// WithPrefix namespaces every key as "<prefix>:<key>".
func WithPrefix(repo Repository, prefix string) Repository {
	return &prefixed{repo: repo, prefix: prefix + ":"}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.repo.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.repo.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.repo.Delete(ctx, p.prefix+key)
}
