package pricer

import "testing"

func testPricer() *Pricer {
	return New(Config{
		SearchEventsBase: 10,
		RelayDiscovery:   20,
		TrendingNotes:    30,
		GetFollowerGraph: 40,
		ZapAnalytics:     50,
	})
}

func TestSearchEventsSurcharges(t *testing.T) {
	p := testPricer()

	cases := []struct {
		limit int
		want  int64
	}{
		{limit: 1, want: 10},
		{limit: 20, want: 10},
		{limit: 21, want: 25},
		{limit: 50, want: 25},
		{limit: 51, want: 50},
		{limit: 100, want: 50},
	}
	for _, c := range cases {
		if got := p.SearchEvents(c.limit); got != c.want {
			t.Errorf("SearchEvents(%d) = %d, want %d", c.limit, got, c.want)
		}
	}
}

func TestGetFollowerGraphDepthDoubling(t *testing.T) {
	p := testPricer()

	if got := p.GetFollowerGraph(1); got != 40 {
		t.Errorf("depth 1 = %d, want 40", got)
	}
	if got := p.GetFollowerGraph(2); got != 80 {
		t.Errorf("depth 2 = %d, want 80", got)
	}
}

func TestFlatPrices(t *testing.T) {
	p := testPricer()

	if got := p.RelayDiscovery(); got != 20 {
		t.Errorf("RelayDiscovery() = %d, want 20", got)
	}
	if got := p.TrendingNotes(); got != 30 {
		t.Errorf("TrendingNotes() = %d, want 30", got)
	}
	if got := p.ZapAnalytics(); got != 50 {
		t.Errorf("ZapAnalytics() = %d, want 50", got)
	}
}

func TestPriceByName(t *testing.T) {
	p := testPricer()

	price, ok := p.Price("search_events")
	if !ok || price != 10 {
		t.Errorf("Price(search_events) = (%d, %v), want (10, true)", price, ok)
	}

	price, ok = p.Price("get_follower_graph")
	if !ok || price != 40 {
		t.Errorf("Price(get_follower_graph) = (%d, %v), want (40, true)", price, ok)
	}

	if _, ok := p.Price("unknown_tool"); ok {
		t.Error("Price(unknown_tool) should report ok=false")
	}
}
