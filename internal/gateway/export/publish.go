package export

import (
	"context"

	artifactrepo "poassistant/internal/gateway/repository/artifact"
)

// Published describes an export stored in the artifact store.
type Published struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
	Size  int    `json:"size"`
	// URL is empty when the store cannot presign links.
	URL string `json:"url,omitempty"`
}

type Publisher struct {
	store artifactrepo.Store
}

func NewPublisher(store artifactrepo.Store) *Publisher {
	return &Publisher{store: store}
}

// Publish stores file under owner and returns where it can be fetched.
func (p *Publisher) Publish(ctx context.Context, owner string, file File) (Published, error) {
	if err := p.store.Put(ctx, owner, file.Name, file.Content, file.ContentType); err != nil {
		return Published{}, err
	}
	url, err := p.store.URL(ctx, owner, file.Name)
	if err != nil {
		return Published{}, err
	}
	return Published{Owner: owner, Name: file.Name, Size: len(file.Content), URL: url}, nil
}

// Fetch returns a previously published file's bytes.
func (p *Publisher) Fetch(ctx context.Context, owner, name string) ([]byte, error) {
	return p.store.Get(ctx, owner, name)
}

// List returns the names published under owner.
func (p *Publisher) List(ctx context.Context, owner string) ([]string, error) {
	return p.store.List(ctx, owner)
}
