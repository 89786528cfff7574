package toolrouter

import (
	"context"
	"encoding/json"

	"github.com/themikemoniker/nostr-intel-mcp/intel"
)

func (r *Router) decodeNostrURI(rawArgs json.RawMessage) (json.RawMessage, error) {
	var args struct {
		URI string `json:"uri"`
	}
	if err := unmarshalArgs(rawArgs, &args); err != nil {
		return nil, err
	}

	result, err := intel.DecodeNostrURI(args.URI)
	if err != nil {
		return nil, err
	}
	return marshal(result)
}

func (r *Router) resolveNip05(ctx context.Context, rawArgs json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Nip05 string `json:"nip05"`
	}
	if err := unmarshalArgs(rawArgs, &args); err != nil {
		return nil, err
	}

	result, err := r.Tools.ResolveNip05(ctx, args.Nip05)
	if err != nil {
		return nil, err
	}
	return marshal(result)
}

func (r *Router) getProfile(ctx context.Context, rawArgs json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Pubkey string `json:"pubkey"`
	}
	if err := unmarshalArgs(rawArgs, &args); err != nil {
		return nil, err
	}

	result, err := r.Tools.GetProfile(ctx, args.Pubkey)
	if err != nil {
		return nil, err
	}
	return marshal(result)
}

func (r *Router) checkRelay(ctx context.Context, rawArgs json.RawMessage) (json.RawMessage, error) {
	var args struct {
		RelayURL string `json:"relay_url"`
	}
	if err := unmarshalArgs(rawArgs, &args); err != nil {
		return nil, err
	}

	result, err := r.Tools.CheckRelay(ctx, args.RelayURL)
	if err != nil {
		return nil, err
	}
	return marshal(result)
}

func (r *Router) searchProfiles(ctx context.Context, rawArgs json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := unmarshalArgs(rawArgs, &args); err != nil {
		return nil, err
	}

	result, err := r.Tools.SearchProfiles(ctx, args.Query, args.Limit)
	if err != nil {
		return nil, err
	}
	return marshal(result)
}
