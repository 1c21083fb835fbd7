package planner

// Attempt runs one full planning attempt rooted at seed: the Linear
// Chain Fuser followed by the Pass Builder's hint protocol. It is the
// single entry point the external compile driver calls per seed node
// per retry.
func Attempt(g *Graph, seed *Node, master *SramAllocator, in FuserInputs, passIndex int, intermediateCompressionEnabled bool) (*Pass, bool) {
	run := RunLinearChainFuser(g, seed, master, in)
	return BuildPass(g, run, master, passIndex, intermediateCompressionEnabled)
}
