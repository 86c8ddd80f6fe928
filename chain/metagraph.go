// Package chain maintains the validator's view of the subnet metagraph: the
// set of registered miner UIDs, their network addresses and hotkeys, and the
// current block/tempo used to drive the Round Gate. It mirrors the role
// self.metagraph/self.subtensor play in the Python implementation's
// BaseValidatorNeuron, but as an explicitly owned, periodically resynced
// cache instead of an ambient framework attribute.
package chain

import (
	"strconv"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/cockroachdb/pebble"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/log"
	"github.com/luxapientia/alphacore-sub000/model"
)

// Client is the subset of a chain RPC client the Metagraph needs to resync.
// Production wiring supplies a real subtensor-equivalent client; tests
// supply a fake.
type Client interface {
	CurrentBlock() (uint64, error)
	Tempo(netuid uint16) (uint64, error)
	Neurons(netuid uint16) ([]model.MinerIdentity, error)
}

// Metagraph is the validator's cached view of subnet membership. Reads are
// served from an in-memory map filled by Resync; each Resync also writes the
// records to a fastcache hot layer and a pebble store. Open does not load
// the pebble store, so a freshly opened Metagraph is empty until its first
// successful Resync.
type Metagraph struct {
	mu       sync.RWMutex
	client   Client
	netuid   uint16
	hot      *fastcache.Cache
	durable  *pebble.DB
	miners   map[int64]model.MinerIdentity
	lastSync time.Time
}

// Open constructs an empty Metagraph backed by a pebble database rooted at
// dir. The hot cache is sized small (miner counts on a subnet are in the
// hundreds, not millions); it is written on every Resync but not read.
func Open(client Client, netuid uint16, dir string) (*Metagraph, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Metagraph{
		client:  client,
		netuid:  netuid,
		hot:     fastcache.New(4 * 1024 * 1024),
		durable: db,
		miners:  make(map[int64]model.MinerIdentity),
	}, nil
}

// Close releases the durable store.
func (m *Metagraph) Close() error {
	return m.durable.Close()
}

// Resync refreshes the miner set from the chain client. Callers decide when
// to invoke it (chain.ResyncLoop below drives the periodic case); Resync
// itself is a single synchronous operation so tests can call it directly.
func (m *Metagraph) Resync() error {
	neurons, err := m.client.Neurons(m.netuid)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.miners = make(map[int64]model.MinerIdentity, len(neurons))
	for _, n := range neurons {
		m.miners[n.UID] = n
		m.hot.Set(uidKey(n.UID), []byte(n.NetworkAddress+"|"+n.Hotkey))
	}
	m.lastSync = time.Now()

	batch := m.durable.NewBatch()
	for _, n := range neurons {
		if err := batch.Set(uidKey(n.UID), []byte(n.NetworkAddress+"|"+n.Hotkey), nil); err != nil {
			batch.Close()
			return err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return err
	}
	log.Info("metagraph resynced", "netuid", m.netuid, "miners", len(neurons))
	return nil
}

// UIDs returns every known miner UID.
func (m *Metagraph) UIDs() []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uids := make([]int64, 0, len(m.miners))
	for uid := range m.miners {
		uids = append(uids, uid)
	}
	return uids
}

// Identity returns the cached identity for uid, if known.
func (m *Metagraph) Identity(uid int64) (model.MinerIdentity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.miners[uid]
	return id, ok
}

// ActiveSet returns every known UID with a non-empty network address, i.e.
// the set the handshake probe is allowed to query, mirroring the Python
// handshake mixin's "skip validators which don't have axons" filter.
func (m *Metagraph) ActiveSet() mapset.Set[int64] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := mapset.NewThreadUnsafeSet[int64]()
	for uid, id := range m.miners {
		if id.HasAddress() {
			set.Add(uid)
		}
	}
	return set
}

// LastSync reports when Resync last succeeded.
func (m *Metagraph) LastSync() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

func uidKey(uid int64) []byte {
	return []byte("uid:" + strconv.FormatInt(uid, 10))
}
