package toolrouter

import (
	"context"
	"encoding/json"
)

func (r *Router) searchEvents(ctx context.Context, rawArgs json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Authors     []string `json:"authors"`
		Kinds       []int    `json:"kinds"`
		Search      string   `json:"search"`
		SinceHours  float64  `json:"since_hours"`
		Limit       int      `json:"limit"`
		PaymentHash string   `json:"payment_hash"`
	}
	if err := unmarshalArgs(rawArgs, &args); err != nil {
		return nil, err
	}

	price := r.Pricer.SearchEvents(args.Limit)
	if early, proceed, err := r.gateOrProceed(ctx, "search_events", price, args.PaymentHash); err != nil {
		return nil, err
	} else if !proceed {
		return early, nil
	}

	result, err := r.Tools.SearchEvents(ctx, args.Authors, args.Kinds, args.Search, args.SinceHours, args.Limit)
	if err != nil {
		return nil, err
	}
	return marshal(result)
}

func (r *Router) relayDiscovery(ctx context.Context, rawArgs json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Pubkey      string `json:"pubkey"`
		PaymentHash string `json:"payment_hash"`
	}
	if err := unmarshalArgs(rawArgs, &args); err != nil {
		return nil, err
	}

	price := r.Pricer.RelayDiscovery()
	if early, proceed, err := r.gateOrProceed(ctx, "relay_discovery", price, args.PaymentHash); err != nil {
		return nil, err
	} else if !proceed {
		return early, nil
	}

	result, err := r.Tools.RelayDiscovery(ctx, args.Pubkey)
	if err != nil {
		return nil, err
	}
	return marshal(result)
}

func (r *Router) trendingNotes(ctx context.Context, rawArgs json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Timeframe   string `json:"timeframe"`
		Limit       int    `json:"limit"`
		PaymentHash string `json:"payment_hash"`
	}
	if err := unmarshalArgs(rawArgs, &args); err != nil {
		return nil, err
	}

	price := r.Pricer.TrendingNotes()
	if early, proceed, err := r.gateOrProceed(ctx, "trending_notes", price, args.PaymentHash); err != nil {
		return nil, err
	} else if !proceed {
		return early, nil
	}

	result, err := r.Aggregate.TrendingNotes(ctx, args.Timeframe, args.Limit)
	if err != nil {
		return nil, err
	}
	return marshal(result)
}

func (r *Router) getFollowerGraph(ctx context.Context, rawArgs json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Pubkey      string `json:"pubkey"`
		Depth       int    `json:"depth"`
		PaymentHash string `json:"payment_hash"`
	}
	if err := unmarshalArgs(rawArgs, &args); err != nil {
		return nil, err
	}

	price := r.Pricer.GetFollowerGraph(args.Depth)
	if early, proceed, err := r.gateOrProceed(ctx, "get_follower_graph", price, args.PaymentHash); err != nil {
		return nil, err
	} else if !proceed {
		return early, nil
	}

	result, err := r.Aggregate.FollowerGraph(ctx, args.Pubkey, args.Depth)
	if err != nil {
		return nil, err
	}
	return marshal(result)
}

func (r *Router) zapAnalytics(ctx context.Context, rawArgs json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Pubkey      string `json:"pubkey"`
		Timeframe   string `json:"timeframe"`
		PaymentHash string `json:"payment_hash"`
	}
	if err := unmarshalArgs(rawArgs, &args); err != nil {
		return nil, err
	}

	price := r.Pricer.ZapAnalytics()
	if early, proceed, err := r.gateOrProceed(ctx, "zap_analytics", price, args.PaymentHash); err != nil {
		return nil, err
	} else if !proceed {
		return early, nil
	}

	result, err := r.Aggregate.ZapAnalytics(ctx, args.Pubkey, args.Timeframe)
	if err != nil {
		return nil, err
	}
	return marshal(result)
}
