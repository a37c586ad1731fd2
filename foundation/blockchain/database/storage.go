package database

import "errors"

// ErrEndOfChain is returned by an iterator once all the blocks were read.
var ErrEndOfChain = errors.New("end of chain")

// ErrBlockNotFound is returned when the requested block number isn't stored.
var ErrBlockNotFound = errors.New("block does not exist")

// Storage interface represents the behavior required to be implemented by any
// package providing support for reading and writing the chain. Block numbers
// start at 1, the genesis block is never stored.
type Storage interface {
	Write(number uint64, block Block) error
	GetBlock(number uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// ReadAll walks the storage from block 1 and returns every block in order.
func ReadAll(s Storage) ([]Block, error) {
	var blocks []Block

	iter := s.ForEach()
	for {
		block, err := iter.Next()
		if err != nil {
			if errors.Is(err, ErrEndOfChain) || iter.Done() {
				break
			}
			return nil, err
		}

		blocks = append(blocks, block)
	}

	return blocks, nil
}
