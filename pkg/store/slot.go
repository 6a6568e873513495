package store

import (
	"bytes"
	"reflect"
	"sync"

	"github.com/ebatur/shardcache/pkg/utils"
)

var (
	zeroNode   node
	zeroByte   byte
	typeOfNode = reflect.TypeOf(zeroNode)
	typeOfByte = reflect.TypeOf(zeroByte)
	sizeOfNode = int(typeOfNode.Size())
)

type slot struct {
	Mu    sync.Mutex
	Nodes []node
}

// FindNode returns the index of the node whose key bytes equal bKey, or
// -1. bKey is stored as the prefix of node.Data.
func (sl *slot) FindNode(keyHash int, bKey []byte) int {
	lbKey := len(bKey)
	if lbKey <= 0 {
		return -1
	}
	for i := range sl.Nodes {
		nd := &sl.Nodes[i]
		if nd.KeyHash == keyHash && len(nd.Data) >= lbKey && bytes.Equal(nd.Data[:lbKey], bKey) {
			return i
		}
	}
	return -1
}

// NewNode returns the index of a free node slot, growing sl.Nodes
// through pool when every existing slot is occupied.
func (sl *slot) NewNode(pool MemPool) int {
	for i := range sl.Nodes {
		if sl.Nodes[i].KeyHash < 0 {
			return i
		}
	}
	idx := len(sl.Nodes)
	newLen := idx + 1
	var raw []byte
	if sl.Nodes == nil {
		raw = pool.Allocate(newLen * sizeOfNode)
	} else {
		old := utils.ChangeSliceType(sl.Nodes, len(sl.Nodes)*sizeOfNode, typeOfByte).([]byte)
		raw = pool.Reallocate(old, newLen*sizeOfNode)
	}
	if raw == nil {
		return -1
	}
	newNodes := utils.ChangeSliceType(raw, newLen, typeOfNode).([]node)
	newNodes[idx] = node{KeyHash: -1}
	sl.Nodes = newNodes
	return idx
}

// DelNode marks idx free and, once every node in the slot is free,
// releases the Nodes backing allocation entirely.
func (sl *slot) DelNode(pool MemPool, idx int) {
	nd := &sl.Nodes[idx]
	nd.KeyHash = -1
	nd.Free(pool)
	for i := range sl.Nodes {
		if sl.Nodes[i].KeyHash >= 0 {
			return
		}
	}
	raw := utils.ChangeSliceType(sl.Nodes, len(sl.Nodes)*sizeOfNode, typeOfByte).([]byte)
	pool.Free(raw)
	sl.Nodes = nil
}
