package domain

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// ErrAvatarLoaderNotConfigured indicates the resolver was built without a loader.
var ErrAvatarLoaderNotConfigured = errors.New("avatar loader is not configured")

// AvatarLoader fetches and decodes one contact avatar.
// It reports false when the image could not be produced.
type AvatarLoader interface {
	LoadAvatar(ctx context.Context, contact Contact) (Image, bool)
}

// AvatarLoaderFunc adapts a function to AvatarLoader.
type AvatarLoaderFunc func(ctx context.Context, contact Contact) (Image, bool)

// LoadAvatar implements AvatarLoader.
func (fn AvatarLoaderFunc) LoadAvatar(ctx context.Context, contact Contact) (Image, bool) {
	return fn(ctx, contact)
}

// ResolverConfig tunes resource resolution.
type ResolverConfig struct {
	// Icons lists the static icons a tile may reference.
	Icons []IconName
	// Concurrency caps parallel avatar fetches. Zero means one per contact.
	Concurrency int
}

// Resolver turns resource requests into loaded images.
type Resolver struct {
	loader      AvatarLoader
	icons       []IconName
	concurrency int
}

// NewResolver builds a resolver over loader.
func NewResolver(loader AvatarLoader, cfg ResolverConfig) (*Resolver, error) {
	if loader == nil {
		return nil, ErrAvatarLoaderNotConfigured
	}
	icons := cfg.Icons
	if len(icons) == 0 {
		icons = DefaultIcons
	}
	concurrency := cfg.Concurrency
	if concurrency < 0 {
		concurrency = 0
	}
	return &Resolver{
		loader:      loader,
		icons:       append([]IconName(nil), icons...),
		concurrency: concurrency,
	}, nil
}

// Resolve loads the resources request selects from state.
//
// Avatars are fetched concurrently. A contact whose avatar fails to load is
// left out of the result. When ctx ends before every fetch finishes the call
// returns the context error and no partial result.
func (r *Resolver) Resolve(ctx context.Context, state TileState, request ResourceRequest) (Resolution, error) {
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	contacts := selectContacts(state, request)
	loaded := make([]*Image, len(contacts))

	group, groupCtx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		group.SetLimit(r.concurrency)
	}
	for i, contact := range contacts {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			image, ok := r.loader.LoadAvatar(groupCtx, contact)
			if ok {
				loaded[i] = &image
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Resolution{}, err
	}
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	avatars := make(map[Contact]Image, len(contacts))
	for i, image := range loaded {
		if image != nil {
			avatars[contacts[i]] = *image
		}
	}
	return Resolution{
		Icons:   r.selectIcons(request),
		Avatars: avatars,
	}, nil
}

func selectContacts(state TileState, request ResourceRequest) []Contact {
	if request.All() {
		return cloneContacts(state.Contacts)
	}
	selected := make([]Contact, 0, len(request.IDs))
	for _, contact := range state.Contacts {
		if request.Names(ContactAvatar(contact.ID)) {
			selected = append(selected, contact)
		}
	}
	return selected
}

func (r *Resolver) selectIcons(request ResourceRequest) []IconName {
	icons := make([]IconName, 0, len(r.icons))
	for _, icon := range r.icons {
		if request.Names(Icon(icon)) {
			icons = append(icons, icon)
		}
	}
	return icons
}
