package extract

import (
	"sort"

	"switchwrapper/internal/model"
	"switchwrapper/internal/topology"
)

// corridor is every AC branch and DC line between one unordered bus pair.
type corridor struct {
	lo, hi int

	branches    []int
	susceptance map[int]float64
	totalB      float64
	acCapacity  float64
	acUnlimited bool

	dclines    []int
	dcPmax     map[int]float64
	dcCapacity float64
}

// acShare is the fraction of the corridor's net flow carried by AC branches.
func (c *corridor) acShare() float64 {
	switch {
	case len(c.dclines) == 0:
		return 1
	case len(c.branches) == 0:
		return 0
	case c.acUnlimited:
		return 1
	case c.acCapacity+c.dcCapacity == 0:
		return 1
	}
	return c.acCapacity / (c.acCapacity + c.dcCapacity)
}

// netFlow is the flow from lo to hi at a timepoint.
func (c *corridor) netFlow(tp int, flows hourly) float64 {
	lo, hi := topology.ZoneID(c.lo), topology.ZoneID(c.hi)
	return flows.at(pairKey(lo, hi), tp) - flows.at(pairKey(hi, lo), tp)
}

// flowSplit distributes zone-pair flows onto individual lines. AC branches share
// their portion by susceptance 1/x and DC lines by Pmax. Flows are signed in each
// line's own from-to direction.
type flowSplit struct {
	corridors map[[2]int]*corridor
	branchOf  map[int]branchRef
	dclineOf  map[int]branchRef

	branchIDs []int
	dclineIDs []int
}

type branchRef struct {
	key  [2]int
	sign float64
}

func orient(from, to int) ([2]int, float64) {
	if from <= to {
		return [2]int{from, to}, 1
	}
	return [2]int{to, from}, -1
}

func newFlowSplit(g *model.Grid) *flowSplit {
	s := &flowSplit{
		corridors: map[[2]int]*corridor{},
		branchOf:  map[int]branchRef{},
		dclineOf:  map[int]branchRef{},
	}
	get := func(key [2]int) *corridor {
		c, ok := s.corridors[key]
		if !ok {
			c = &corridor{lo: key[0], hi: key[1], susceptance: map[int]float64{}, dcPmax: map[int]float64{}}
			s.corridors[key] = c
		}
		return c
	}

	for _, br := range g.Branches {
		key, sign := orient(br.FromBusID, br.ToBusID)
		c := get(key)
		b := 1 / br.X
		c.branches = append(c.branches, br.ID)
		c.susceptance[br.ID] = b
		c.totalB += b
		c.acCapacity += br.RateA
		if br.RateA == 0 {
			c.acUnlimited = true
		}
		s.branchOf[br.ID] = branchRef{key: key, sign: sign}
		s.branchIDs = append(s.branchIDs, br.ID)
	}
	for _, dc := range g.DCLines {
		key, sign := orient(dc.FromBusID, dc.ToBusID)
		c := get(key)
		c.dclines = append(c.dclines, dc.ID)
		c.dcPmax[dc.ID] = dc.Pmax
		c.dcCapacity += dc.Pmax
		s.dclineOf[dc.ID] = branchRef{key: key, sign: sign}
		s.dclineIDs = append(s.dclineIDs, dc.ID)
	}
	sort.Ints(s.branchIDs)
	sort.Ints(s.dclineIDs)
	return s
}

func (s *flowSplit) branch(id, tp int, flows hourly) float64 {
	ref := s.branchOf[id]
	c := s.corridors[ref.key]
	if c.lo == c.hi || c.totalB == 0 {
		return 0
	}
	return ref.sign * c.netFlow(tp, flows) * c.acShare() * c.susceptance[id] / c.totalB
}

func (s *flowSplit) dcline(id, tp int, flows hourly) float64 {
	ref := s.dclineOf[id]
	c := s.corridors[ref.key]
	if c.lo == c.hi {
		return 0
	}
	share := 1 / float64(len(c.dclines))
	if c.dcCapacity > 0 {
		share = c.dcPmax[id] / c.dcCapacity
	}
	return ref.sign * c.netFlow(tp, flows) * (1 - c.acShare()) * share
}
