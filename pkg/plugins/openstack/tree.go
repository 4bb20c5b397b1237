package openstack

// Node is either a Value or a Group in a stats tree.  A tree produced by a
// collector is keyed prefix -> entity -> metric type, where the metric type
// holds either a Value or a Group of type instances to Values.
type Node interface {
	isNode()
}

// Value is a leaf of the stats tree
type Value float64

// Group is an interior node of the stats tree
type Group map[string]Node

func (Value) isNode() {}
func (Group) isNode() {}

// Sub returns the child group under name, creating it if it doesn't exist.
// It panics if name already holds a Value.
func (g Group) Sub(name string) Group {
	if n, ok := g[name]; ok {
		return n.(Group)
	}
	sub := Group{}
	g[name] = sub
	return sub
}

// Set records a leaf value under name
func (g Group) Set(name string, v float64) {
	g[name] = Value(v)
}

// Leaves returns the number of Values anywhere under the group
func (g Group) Leaves() int {
	count := 0
	for _, n := range g {
		switch t := n.(type) {
		case Value:
			count++
		case Group:
			count += t.Leaves()
		}
	}
	return count
}
