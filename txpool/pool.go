package txpool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/blkchain/ingress"
	"github.com/blkchain/ingress/consensus"
	"github.com/lightningnetwork/lnd/clock"
)

// ErrPoolStopped is returned for requests made after Stop.
var ErrPoolStopped = errors.New("tx pool is stopped")

const DefaultMaxOrphans = 100

// CellProvider looks up cells that are live on chain.
type CellProvider interface {
	LiveCell(op ingress.OutPoint) (*ingress.CellOutput, bool, error)
}

// ScriptVerifier runs the scripts of a resolved transaction and returns
// the cycles consumed.
type ScriptVerifier interface {
	VerifyScripts(tx *ingress.TransactionView, inputs []*ingress.CellOutput) (uint64, error)
}

type Config struct {
	MinFeeRate        ingress.FeeRate
	MaxAncestorsCount int
	MaxOrphans        int

	// Cells resolves inputs that do not spend pooled transactions. If
	// nil, such inputs are never found and the transaction is kept as
	// an orphan.
	Cells CellProvider

	// Verifier is optional. Without it transactions cost zero cycles.
	Verifier ScriptVerifier

	Clock clock.Clock
}

type entry struct {
	tx        *ingress.TransactionView
	size      uint64
	cycles    uint64
	fee       ingress.Capacity
	ancestors map[ingress.Uint256]struct{}
	proposed  bool
}

type submitRequest struct {
	txs  []*ingress.TransactionView
	resp chan submitResponse
}

type submitResponse struct {
	outcomes []Outcome
	err      error
}

type infoRequest struct {
	resp chan *Info
}

type proposeRequest struct {
	ids  []ingress.ProposalShortID
	resp chan int
}

type commitRequest struct {
	txs  []*ingress.TransactionView
	resp chan int
}

// Pool is an in-memory transaction pool. All state is owned by a single
// goroutine and every request is served in the order received.
type Pool struct {
	cfg Config

	entries       map[ingress.Uint256]*entry
	spent         map[ingress.OutPoint]ingress.Uint256
	orphans       map[ingress.Uint256]*ingress.TransactionView
	orphanOrder   []ingress.Uint256
	pendingCount  int
	proposedCount int
	totalSize     uint64
	totalCycles   uint64
	lastUpdated   time.Time

	submitReqs  chan *submitRequest
	infoReqs    chan *infoRequest
	proposeReqs chan *proposeRequest
	commitReqs  chan *commitRequest

	started sync.Once
	stopped sync.Once
	wg      sync.WaitGroup
	quit    chan struct{}
}

var _ Handle = (*Pool)(nil)

func New(cfg Config) *Pool {
	if cfg.MaxAncestorsCount <= 0 {
		cfg.MaxAncestorsCount = consensus.DefaultMaxAncestorsCount
	}
	if cfg.MaxOrphans <= 0 {
		cfg.MaxOrphans = DefaultMaxOrphans
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	return &Pool{
		cfg:         cfg,
		entries:     make(map[ingress.Uint256]*entry),
		spent:       make(map[ingress.OutPoint]ingress.Uint256),
		orphans:     make(map[ingress.Uint256]*ingress.TransactionView),
		submitReqs:  make(chan *submitRequest),
		infoReqs:    make(chan *infoRequest),
		proposeReqs: make(chan *proposeRequest),
		commitReqs:  make(chan *commitRequest),
		quit:        make(chan struct{}),
	}
}

func (p *Pool) Start() {
	p.started.Do(func() {
		log.Infof("Starting tx pool, min fee rate %v shannons/KB, "+
			"max ancestors %d", p.cfg.MinFeeRate, p.cfg.MaxAncestorsCount)
		p.wg.Add(1)
		go p.serviceLoop()
	})
}

func (p *Pool) Stop() {
	p.stopped.Do(func() {
		log.Info("Stopping tx pool")
		close(p.quit)
		p.wg.Wait()
	})
}

// roundTrip hands req to the service loop and waits for its answer.
func roundTrip[Req any, Resp any](ctx context.Context, quit <-chan struct{},
	reqs chan<- Req, req Req, resp <-chan Resp) (Resp, error) {

	var zero Resp
	select {
	case reqs <- req:
	case <-quit:
		return zero, ErrPoolStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case r := <-resp:
		return r, nil
	case <-quit:
		return zero, ErrPoolStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// SubmitTxs submits transactions in order and returns one outcome per
// transaction.
func (p *Pool) SubmitTxs(ctx context.Context, txs []*ingress.TransactionView) ([]Outcome, error) {
	req := &submitRequest{txs: txs, resp: make(chan submitResponse, 1)}
	r, err := roundTrip[*submitRequest, submitResponse](ctx, p.quit, p.submitReqs, req, req.resp)
	if err != nil {
		return nil, err
	}
	return r.outcomes, r.err
}

func (p *Pool) GetTxPoolInfo(ctx context.Context) (*Info, error) {
	req := &infoRequest{resp: make(chan *Info, 1)}
	return roundTrip[*infoRequest, *Info](ctx, p.quit, p.infoReqs, req, req.resp)
}

// Propose moves the pending transactions named by ids to the proposed
// set and returns how many moved.
func (p *Pool) Propose(ctx context.Context, ids []ingress.ProposalShortID) (int, error) {
	req := &proposeRequest{ids: ids, resp: make(chan int, 1)}
	return roundTrip[*proposeRequest, int](ctx, p.quit, p.proposeReqs, req, req.resp)
}

// RemoveCommitted drops the transactions of a connected block from the
// pool, together with pooled transactions that spend the same cells and
// their descendants. It returns how many entries were removed.
func (p *Pool) RemoveCommitted(ctx context.Context, txs []*ingress.TransactionView) (int, error) {
	req := &commitRequest{txs: txs, resp: make(chan int, 1)}
	return roundTrip[*commitRequest, int](ctx, p.quit, p.commitReqs, req, req.resp)
}

func (p *Pool) serviceLoop() {
	defer p.wg.Done()

	for {
		select {
		case req := <-p.submitReqs:
			outcomes, err := p.submit(req.txs)
			req.resp <- submitResponse{outcomes: outcomes, err: err}

		case req := <-p.infoReqs:
			req.resp <- p.info()

		case req := <-p.proposeReqs:
			req.resp <- p.propose(req.ids)

		case req := <-p.commitReqs:
			req.resp <- p.removeCommitted(req.txs)

		case <-p.quit:
			return
		}
	}
}

func (p *Pool) submit(txs []*ingress.TransactionView) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(txs))
	for _, tx := range txs {
		outcome, err := p.admit(tx)
		if err != nil {
			return nil, err
		}
		log.Debugf("Tx %v: %v", tx.Hash(), outcome)
		outcomes = append(outcomes, outcome)

		if _, ok := outcome.(Accepted); ok {
			p.processOrphans()
		}
	}
	return outcomes, nil
}

type resolved struct {
	inputs    []*ingress.CellOutput
	missing   []ingress.OutPoint
	ancestors map[ingress.Uint256]struct{}
	reject    string
}

// resolve finds the cells spent by tx, first among pooled transactions
// and then on chain.
func (p *Pool) resolve(tx *ingress.TransactionView) (*resolved, error) {
	res := &resolved{ancestors: make(map[ingress.Uint256]struct{})}
	seen := make(map[ingress.OutPoint]struct{}, len(tx.Inputs()))
	for _, in := range tx.Inputs() {
		op := in.PreviousOutput
		if _, ok := seen[op]; ok {
			res.reject = "DuplicatedInput"
			return res, nil
		}
		seen[op] = struct{}{}

		if _, ok := p.spent[op]; ok {
			res.reject = "Conflict"
			return res, nil
		}

		if parent, ok := p.entries[op.TxHash]; ok {
			outputs := parent.tx.Outputs()
			if int(op.Index) >= len(outputs) {
				res.reject = "Unknown"
				return res, nil
			}
			res.inputs = append(res.inputs, outputs[op.Index])
			res.ancestors[op.TxHash] = struct{}{}
			for a := range parent.ancestors {
				res.ancestors[a] = struct{}{}
			}
			continue
		}

		if p.cfg.Cells == nil {
			res.missing = append(res.missing, op)
			continue
		}
		cell, ok, err := p.cfg.Cells.LiveCell(op)
		if err != nil {
			return nil, err
		}
		if !ok {
			res.missing = append(res.missing, op)
			continue
		}
		res.inputs = append(res.inputs, cell)
	}
	return res, nil
}

func (p *Pool) admit(tx *ingress.TransactionView) (Outcome, error) {
	hash := tx.Hash()
	if _, ok := p.entries[hash]; ok {
		return Rejected{Reason: "Duplicated"}, nil
	}
	if _, ok := p.orphans[hash]; ok {
		return Rejected{Reason: "Duplicated"}, nil
	}
	if tx.Transaction().IsCellbase() {
		return Rejected{Reason: "Cellbase"}, nil
	}

	res, err := p.resolve(tx)
	if err != nil {
		return nil, err
	}
	if res.reject != "" {
		return Rejected{Reason: res.reject}, nil
	}
	if len(res.missing) > 0 {
		log.Debugf("Tx %v is an orphan, missing %v", hash, res.missing[0])
		p.addOrphan(tx)
		return Accepted{}, nil
	}

	var inputsCapacity ingress.Capacity
	for _, cell := range res.inputs {
		var ok bool
		if inputsCapacity, ok = inputsCapacity.SafeAdd(cell.Capacity); !ok {
			return Rejected{Reason: "InputsSumOverflow"}, nil
		}
	}
	outputsCapacity, ok := tx.OutputsCapacity()
	if !ok || outputsCapacity > inputsCapacity {
		return Rejected{Reason: "OutputsSumOverflow"}, nil
	}

	fee := inputsCapacity - outputsCapacity
	size := uint64(tx.SerializedSizeInBlock())
	if minFee := p.cfg.MinFeeRate.Fee(size); fee < minFee {
		return LowFeeRate{MinFee: minFee}, nil
	}

	// Ancestors count includes the transaction itself.
	if len(res.ancestors)+1 > p.cfg.MaxAncestorsCount {
		return ExceededMaximumAncestorsCount{}, nil
	}

	var cycles uint64
	if p.cfg.Verifier != nil {
		if cycles, err = p.cfg.Verifier.VerifyScripts(tx, res.inputs); err != nil {
			return Rejected{Reason: err.Error()}, nil
		}
	}

	p.entries[hash] = &entry{
		tx:        tx,
		size:      size,
		cycles:    cycles,
		fee:       fee,
		ancestors: res.ancestors,
	}
	for _, in := range tx.Inputs() {
		p.spent[in.PreviousOutput] = hash
	}
	p.pendingCount++
	p.totalSize += size
	p.totalCycles += cycles
	p.lastUpdated = p.cfg.Clock.Now()

	return Accepted{}, nil
}

func (p *Pool) addOrphan(tx *ingress.TransactionView) {
	if len(p.orphans) >= p.cfg.MaxOrphans {
		oldest := p.orphanOrder[0]
		p.removeOrphan(oldest)
		log.Debugf("Orphan pool full, evicted %v", oldest)
	}
	p.orphans[tx.Hash()] = tx
	p.orphanOrder = append(p.orphanOrder, tx.Hash())
	p.lastUpdated = p.cfg.Clock.Now()
}

func (p *Pool) removeOrphan(hash ingress.Uint256) {
	if _, ok := p.orphans[hash]; !ok {
		return
	}
	delete(p.orphans, hash)
	p.lastUpdated = p.cfg.Clock.Now()
	for i, h := range p.orphanOrder {
		if h == hash {
			p.orphanOrder = append(p.orphanOrder[:i], p.orphanOrder[i+1:]...)
			break
		}
	}
}

// processOrphans admits orphans whose inputs have become resolvable,
// until no more progress is made.
func (p *Pool) processOrphans() {
	for progress := true; progress; {
		progress = false
		order := append([]ingress.Uint256(nil), p.orphanOrder...)
		for _, hash := range order {
			tx, ok := p.orphans[hash]
			if !ok {
				continue
			}
			res, err := p.resolve(tx)
			if err != nil {
				log.Errorf("Unable to resolve orphan %v: %v", hash, err)
				continue
			}
			if len(res.missing) > 0 && res.reject == "" {
				continue
			}

			p.removeOrphan(hash)
			outcome, err := p.admit(tx)
			if err != nil {
				log.Errorf("Unable to admit orphan %v: %v", hash, err)
				continue
			}
			log.Debugf("Orphan %v: %v", hash, outcome)
			progress = true
		}
	}
}

func (p *Pool) propose(ids []ingress.ProposalShortID) int {
	wanted := make(map[ingress.ProposalShortID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var n int
	for hash, e := range p.entries {
		if e.proposed {
			continue
		}
		if _, ok := wanted[ingress.NewProposalShortID(hash)]; !ok {
			continue
		}
		e.proposed = true
		p.pendingCount--
		p.proposedCount++
		n++
	}
	if n > 0 {
		p.lastUpdated = p.cfg.Clock.Now()
	}
	return n
}

func (p *Pool) removeCommitted(txs []*ingress.TransactionView) int {
	var n int
	for _, tx := range txs {
		if tx.Transaction().IsCellbase() {
			continue
		}
		if p.removeEntry(tx.Hash()) {
			n++
		}
		p.removeOrphan(tx.Hash())

		for _, in := range tx.Inputs() {
			if other, ok := p.spent[in.PreviousOutput]; ok {
				log.Debugf("Tx %v conflicts with committed %v", other, tx.Hash())
				n += p.removeWithDescendants(other)
			}
		}
	}
	if n > 0 {
		p.lastUpdated = p.cfg.Clock.Now()
	}

	// Committed outputs may be what orphans were waiting for.
	p.processOrphans()
	return n
}

func (p *Pool) removeWithDescendants(hash ingress.Uint256) int {
	victims := []ingress.Uint256{hash}
	for h, e := range p.entries {
		if _, ok := e.ancestors[hash]; ok {
			victims = append(victims, h)
		}
	}

	var n int
	for _, h := range victims {
		if p.removeEntry(h) {
			n++
		}
	}
	return n
}

func (p *Pool) removeEntry(hash ingress.Uint256) bool {
	e, ok := p.entries[hash]
	if !ok {
		return false
	}
	delete(p.entries, hash)
	for _, in := range e.tx.Inputs() {
		if p.spent[in.PreviousOutput] == hash {
			delete(p.spent, in.PreviousOutput)
		}
	}
	if e.proposed {
		p.proposedCount--
	} else {
		p.pendingCount--
	}
	p.totalSize -= e.size
	p.totalCycles -= e.cycles

	for _, other := range p.entries {
		delete(other.ancestors, hash)
	}
	return true
}

func (p *Pool) info() *Info {
	var lastUpdated uint64
	if !p.lastUpdated.IsZero() {
		lastUpdated = uint64(p.lastUpdated.UnixMilli())
	}
	return &Info{
		Pending:          uint64(p.pendingCount),
		Proposed:         uint64(p.proposedCount),
		Orphan:           uint64(len(p.orphans)),
		TotalTxSize:      p.totalSize,
		TotalTxCycles:    p.totalCycles,
		LastTxsUpdatedAt: lastUpdated,
	}
}
