// Package timing reads a slide's animation timing tree and classifies
// what it does to shape visibility. It has two operating modes over one
// detection vocabulary: ClassifyInOut buckets shapes into entrance/exit
// for a Before/After split, and CollectEvents produces the ordered,
// step-grouped visibility event list for timeline expansion.
//
// PresentationML expresses "this shape appears/disappears" several
// redundant ways: preset-classed effect containers, click-triggered
// containers, style.visibility/opacity attribute sets, motion paths that
// leave the canvas, and vendor-extended (p14) effects. Each recognized
// form is handled by its own rule. A node that fits no rule, or that
// lacks a resolvable target, is skipped rather than treated as fatal;
// decks in the wild are full of vendor quirks.
package timing

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// The detection vocabulary is fixed, so every expression is compiled
// once at startup.
var (
	animEffectExpr   = xpath.MustCompile("//p:animEffect")
	clickCtnExpr     = xpath.MustCompile("//p:cTn[@nodeType='clickEffect']")
	setExpr          = xpath.MustCompile("//p:set")
	animMotionExpr   = xpath.MustCompile("//p:animMotion")
	vendorEffectExpr = xpath.MustCompile("//p14:animEffect")

	behaviorVisibilityExpr = xpath.MustCompile(".//p:set[p:cBhvr/p:attrNameLst/p:attrName='style.visibility']/p:to/p:strVal")
	bareVisibilityExpr     = xpath.MustCompile(".//p:set[p:attrNameLst/p:attrName='style.visibility']/p:to/p:strVal")
	spTgtExpr              = xpath.MustCompile(".//p:spTgt")
	attrNameExpr           = xpath.MustCompile(".//p:attrName")
	toExpr                 = xpath.MustCompile("p:to")
	toStrValExpr           = xpath.MustCompile("p:to/p:strVal")
)

// Event is one visibility change in timeline mode. Events sharing a Step
// fire at the same logical instant.
type Event struct {
	Step    int
	ShapeID int
	Visible bool
}

// Buckets holds the split-mode classification. A shape id can appear in
// neither, either, or both buckets.
type Buckets struct {
	Entrance map[int]bool
	Exit     map[int]bool
}

// Empty reports whether no shape was classified at all.
func (b Buckets) Empty() bool {
	return len(b.Entrance) == 0 && len(b.Exit) == 0
}

// Motion-path destinations are expressed in 1000ths of a percent of the
// slide dimension: 100000 = 100%. Anything outside [0, 100000] on either
// axis has left the canvas.
const canvasLimit = 100000

// ClassifyInOut walks the slide's timing tree and assigns target shape
// ids to entrance/exit buckets using the fixed rule order. Later rules
// only ever add to earlier results. skipped counts nodes that matched a
// rule's shape but could not be parsed into it.
func ClassifyInOut(slide *xmlquery.Node) (Buckets, int) {
	b := Buckets{Entrance: make(map[int]bool), Exit: make(map[int]bool)}
	skipped := 0

	// Rule 1: directed effect nodes (presetClass or in:/out: filter).
	for _, eff := range query(slide, animEffectExpr) {
		cls := strings.ToLower(eff.SelectAttr("presetClass"))
		filter := strings.ToLower(eff.SelectAttr("filter"))
		ids := targetIDs(eff, &skipped)
		switch {
		case cls == "entr" || strings.HasPrefix(filter, "in:"):
			addAll(b.Entrance, ids)
		case cls == "exit" || strings.HasPrefix(filter, "out:"):
			addAll(b.Exit, ids)
		}
	}

	// Rule 2: click-triggered containers. A directed preset class wins;
	// otherwise the nested visibility sets decide.
	for _, ctn := range query(slide, clickCtnExpr) {
		cls := strings.ToLower(ctn.SelectAttr("presetClass"))
		ids := targetIDs(ctn, &skipped)
		switch cls {
		case "entr":
			addAll(b.Entrance, ids)
		case "exit":
			addAll(b.Exit, ids)
		default:
			vals := attrValues(ctn, behaviorVisibilityExpr, "val")
			if len(vals) == 0 {
				vals = attrValues(ctn, bareVisibilityExpr, "val")
			}
			if len(vals) > 0 {
				if vals[0] == "hidden" {
					addAll(b.Exit, ids)
				} else {
					addAll(b.Entrance, ids)
				}
			}
		}
	}

	// Rule 3: visibility/opacity attribute sets.
	for _, set := range query(slide, setExpr) {
		names := attrNames(set)
		if len(names) == 0 {
			continue
		}
		ids := targetIDs(set, &skipped)
		to := setTargetValue(set)
		switch {
		case names["style.visibility"]:
			if to == "hidden" {
				addAll(b.Exit, ids)
			} else {
				addAll(b.Entrance, ids)
			}
		case names["opacity"] || names["style.opacity"]:
			if to == "0" || to == "0.0" {
				addAll(b.Exit, ids)
			} else {
				addAll(b.Entrance, ids)
			}
		}
	}

	// Rule 4: motion paths whose destination leaves the canvas.
	for _, mot := range query(slide, animMotionExpr) {
		off, ok := motionDestination(mot, &skipped)
		if !ok {
			continue
		}
		if off.X < 0 || off.Y < 0 || off.X > canvasLimit || off.Y > canvasLimit {
			addAll(b.Exit, targetIDs(mot, &skipped))
		}
	}

	// Rule 5: extended (vendor) directed effects.
	for _, eff := range query(slide, vendorEffectExpr) {
		cls := strings.ToLower(eff.SelectAttr("presetClass"))
		ids := targetIDs(eff, &skipped)
		switch cls {
		case "entr":
			addAll(b.Entrance, ids)
		case "exit":
			addAll(b.Exit, ids)
		}
	}

	return b, skipped
}

// CollectEvents walks every style.visibility set node in document order
// and emits one event per node, grouped into steps by the nearest
// enclosing timing container. Step keys are numbered in first-seen order
// starting at 0. Nodes lacking a resolvable target id or value are
// skipped.
func CollectEvents(slide *xmlquery.Node) ([]Event, int) {
	var events []Event
	skipped := 0

	stepByContainer := make(map[containerKey]int)
	nextStep := 0

	for _, set := range query(slide, setExpr) {
		if !attrNames(set)["style.visibility"] {
			continue
		}

		tgt := xmlquery.QuerySelector(set, spTgtExpr)
		if tgt == nil {
			skipped++
			continue
		}
		id, err := strconv.Atoi(tgt.SelectAttr("spid"))
		if err != nil {
			skipped++
			continue
		}
		val := setTargetValue(set)
		if val == "" {
			skipped++
			continue
		}

		key := enclosingContainer(set)
		step, ok := stepByContainer[key]
		if !ok {
			step = nextStep
			stepByContainer[key] = step
			nextStep++
		}
		events = append(events, Event{Step: step, ShapeID: id, Visible: val != "hidden"})
	}
	return events, skipped
}

// containerKey identifies a timing container: its explicit id when
// present, otherwise the node's own identity.
type containerKey struct {
	id   string
	node *xmlquery.Node
}

func enclosingContainer(set *xmlquery.Node) containerKey {
	for n := set.Parent; n != nil; n = n.Parent {
		if n.Type == xmlquery.ElementNode && n.Prefix == "p" && n.Data == "cTn" {
			if id := n.SelectAttr("id"); id != "" {
				return containerKey{id: id}
			}
			return containerKey{node: n}
		}
	}
	// No enclosing container: the set node is its own instant.
	return containerKey{node: set}
}

// query evaluates a precompiled expression against a node. A slide with
// none of the queried nodes yields an empty slice.
func query(n *xmlquery.Node, expr *xpath.Expr) []*xmlquery.Node {
	return xmlquery.QuerySelectorAll(n, expr)
}

// targetIDs collects the spTgt shape ids beneath a timing node,
// counting unparsable ids as skipped.
func targetIDs(n *xmlquery.Node, skipped *int) []int {
	var ids []int
	for _, tgt := range query(n, spTgtExpr) {
		id, err := strconv.Atoi(tgt.SelectAttr("spid"))
		if err != nil {
			*skipped++
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func addAll(bucket map[int]bool, ids []int) {
	for _, id := range ids {
		bucket[id] = true
	}
}

// attrNames gathers the lowercase attrName texts beneath a set node.
func attrNames(set *xmlquery.Node) map[string]bool {
	names := make(map[string]bool)
	for _, n := range query(set, attrNameExpr) {
		names[strings.ToLower(strings.TrimSpace(n.InnerText()))] = true
	}
	return names
}

// setTargetValue extracts the post-animation value of a set node. The
// grammar is redundant: a strVal child, a val attribute, or a valLst.
func setTargetValue(set *xmlquery.Node) string {
	if vals := attrValues(set, toStrValExpr, "val"); len(vals) > 0 {
		return vals[0]
	}
	if to := xmlquery.QuerySelector(set, toExpr); to != nil {
		if v := to.SelectAttr("val"); v != "" {
			return v
		}
		if v := to.SelectAttr("valLst"); v != "" {
			return v
		}
	}
	return ""
}

func attrValues(n *xmlquery.Node, expr *xpath.Expr, attr string) []string {
	var out []string
	for _, m := range query(n, expr) {
		if v := m.SelectAttr(attr); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// motionDestination resolves where a motion path ends: the explicit
// <p:to> offset when present, otherwise the final point of the path
// grammar scaled to the same 1000ths-of-a-percent space. ok is false
// when the node expresses no usable destination.
func motionDestination(mot *xmlquery.Node, skipped *int) (Offset, bool) {
	if to := xmlquery.QuerySelector(mot, toExpr); to != nil {
		x, errX := strconv.Atoi(defaultZero(to.SelectAttr("x")))
		y, errY := strconv.Atoi(defaultZero(to.SelectAttr("y")))
		if errX != nil || errY != nil {
			*skipped++
			return Offset{}, false
		}
		return Offset{X: x, Y: y}, true
	}
	if path := mot.SelectAttr("path"); path != "" {
		end, err := PathDestination(path)
		if err != nil {
			*skipped++
			return Offset{}, false
		}
		return Offset{
			X: int(end.X * canvasLimit),
			Y: int(end.Y * canvasLimit),
		}, true
	}
	return Offset{}, false
}

func defaultZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// Offset is a motion destination in 1000ths of a percent of the slide.
type Offset struct {
	X, Y int
}
