package kmerdb

import (
	"bytes"
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpStats = DumpFlags(1 << iota)
	DumpProperties
	DumpBlocks

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)

	indentStep = "  "
)

var dumpSep = strings.Repeat("=", 80)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump describes the container's namespace, one line per group or
// collection, for debugging and tests.
func (c *Container) Dump(f DumpFlags) (string, error) {
	var buf strings.Builder
	fmt.Fprintln(&buf, dumpSep)
	fmt.Fprintf(&buf, "%s (%s)\n", c.name, c.path)
	err := c.view(func(tx StorageTx) error {
		return dumpChildren(&buf, tx, nil, indentStep, f)
	})
	if err != nil {
		return "", backendErrf(c, nil, err, "cannot dump")
	}
	return buf.String(), nil
}

func dumpChildren(w *strings.Builder, tx StorageTx, path []string, indent string, f DumpFlags) error {
	for _, name := range tx.Buckets(path) {
		child := childPath(path, name)
		bkt := tx.Bucket(child)
		kind := bucketKind(bkt)
		if kind == kindGroup {
			fmt.Fprintf(w, "%s%s/\n", indent, name)
			if err := dumpChildren(w, tx, child, indent+indentStep, f); err != nil {
				return err
			}
			continue
		}
		s, err := bucketStats(bkt)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s%s (%s, %d items)\n", indent, name, kind, s.Items)
		sub := indent + indentStep
		if f.Contains(DumpStats) {
			fmt.Fprintf(w, "%sstats: blocks = %d, data_size = %d, data_alloc = %d\n", sub, s.Blocks, s.DataSize, s.DataAlloc)
		}
		if f.Contains(DumpProperties) {
			cur := bkt.Cursor()
			prefix := []byte{propKeyPrefix}
			for k, v := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
				fmt.Fprintf(w, "%s%s = %q\n", sub, k[1:], v)
			}
		}
		if f.Contains(DumpBlocks) && kind == kindBlocks {
			cur := bkt.Cursor()
			for k, v := cur.Seek([]byte{blockKeyPrefix}); k != nil; k, v = cur.Next() {
				seq, ok := parseBlockKey(k)
				if !ok {
					break
				}
				var blk block
				if err := blk.decode(v); err != nil {
					fmt.Fprintf(w, "%sblock %d ** ERROR: %v\n", sub, seq, err)
					continue
				}
				fmt.Fprintf(w, "%sblock %d: %d items, %d => %d bytes, flags %x\n", sub, seq, blk.Count, blk.RawSize, len(blk.Payload), uint64(blk.Flags))
			}
		}
	}
	return nil
}
