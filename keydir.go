package minicask

import "github.com/google/btree"

// keydirDegree is the branching factor of the index tree.
const keydirDegree = 32

// keydirItem orders keys lexicographically within the tree.
type keydirItem struct {
	key string
	pos entry
}

func (ki *keydirItem) Less(than btree.Item) bool {
	return ki.key < than.(*keydirItem).key
}

// keydir maps every live key to the location of its newest value. It is
// pure in-memory state: rebuilt by replay on open and kept current by
// every successful write. The caller is responsible for locking.
type keydir struct {
	tree *btree.BTree
}

func newKeydir() *keydir {
	return &keydir{tree: btree.New(keydirDegree)}
}

func (k *keydir) put(key string, pos entry) {
	k.tree.ReplaceOrInsert(&keydirItem{key: key, pos: pos})
}

func (k *keydir) get(key string) (entry, bool) {
	item := k.tree.Get(&keydirItem{key: key})
	if item == nil {
		return entry{}, false
	}
	return item.(*keydirItem).pos, true
}

func (k *keydir) delete(key string) bool {
	return k.tree.Delete(&keydirItem{key: key}) != nil
}

func (k *keydir) size() int {
	return k.tree.Len()
}

// ascend walks the live keys in ascending order until fn returns false.
func (k *keydir) ascend(fn func(key string, pos entry) bool) {
	k.tree.Ascend(func(item btree.Item) bool {
		ki := item.(*keydirItem)
		return fn(ki.key, ki.pos)
	})
}
