// Package app wires every layer (Auth, Cost, Fed, Gene, Meme) into a single
// request pipeline and owns the gateway's startup sequence.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/voxov/voxov/internal/audit"
	"github.com/voxov/voxov/internal/costlayer"
	"github.com/voxov/voxov/internal/costmodel"
	"github.com/voxov/voxov/internal/fed"
	"github.com/voxov/voxov/internal/gene"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/meme"
	"github.com/voxov/voxov/internal/session"
	"github.com/voxov/voxov/internal/store/doc"
	"github.com/voxov/voxov/internal/store/object"
	"github.com/voxov/voxov/internal/transport"
	"github.com/voxov/voxov/internal/voerr"
)

// Gateway holds every layer and dispatches a parsed transport.Request
// through Auth -> Cost -> Fed -> Gene/Meme, per spec §4-5.
type Gateway struct {
	auth   *session.Auth
	cost   *costlayer.Cost
	fed    *fed.Fed
	genes  *gene.Registry
	ledger *audit.Ledger
	docs   *doc.Store
	objs   *object.Store
	rates  costmodel.Rates
}

// NewGateway assembles the Gateway from its already-constructed layers.
func NewGateway(auth *session.Auth, cost *costlayer.Cost, f *fed.Fed, genes *gene.Registry, ledger *audit.Ledger, docs *doc.Store, objs *object.Store, rates costmodel.Rates) *Gateway {
	return &Gateway{
		auth:   auth,
		cost:   cost,
		fed:    f,
		genes:  genes,
		ledger: ledger,
		docs:   docs,
		objs:   objs,
		rates:  rates,
	}
}

// Result is what a handled request renders back through transport.
type Result struct {
	Type      string
	Body      string
	Stream    io.Reader
	Remainder costmodel.Costs
}

// Handle runs req through the pipeline and produces a Result, or an error
// to be rendered via transport.WriteError.
func (gw *Gateway) Handle(ctx context.Context, req *transport.Request) (*Result, error) {
	switch req.Type {
	case "SessionStart":
		return gw.sessionStart(ctx, req)
	case "SessionRefresh":
		return gw.sessionRefresh(ctx, req)
	case "SessionEnd":
		return gw.sessionEnd(ctx, req)
	case "SmsSendTo":
		return gw.smsSendTo(ctx, req)
	case "SmsSent":
		return gw.smsSent(ctx, req)
	}

	access, err := req.RequireAccess()
	if err != nil {
		return nil, err
	}
	uid, err := gw.auth.Resolve(ctx, access)
	if err != nil {
		return nil, err
	}

	switch req.Type {
	case "CostGet":
		return gw.costGet(ctx, req, uid)
	case "CostPay":
		return gw.costPay(ctx, req, uid)
	case "CostCheckIn":
		return gw.costCheckIn(ctx, req, uid)
	}

	reservation, err := gw.cost.Reserve(ctx, uid, req.Costs)
	if err != nil {
		return nil, err
	}

	result, err := gw.fed.Dispatch(ctx, req.Fed, uid, reservation, func(ctx context.Context, uid ids.Id, reservation costlayer.Reservation) (any, error) {
		return gw.dispatchLocal(ctx, req, uid, reservation)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Result), nil
}

// ServeHTTP implements the single POST / entry point: parse the request
// off its headers, run it through Handle, and render the result or error
// back through the same header-driven wire protocol.
func (gw *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := transport.Parse(r)
	if err != nil {
		transport.WriteError(w, costmodel.Costs{}, err)
		return
	}

	result, err := gw.Handle(r.Context(), req)
	if err != nil {
		transport.WriteError(w, costmodel.Costs{}, err)
		return
	}

	if result.Stream != nil {
		_ = transport.WriteStream(w, result.Type, result.Remainder, result.Stream)
		return
	}
	transport.WriteResult(w, result.Type, result.Remainder, result.Body)
}

func (gw *Gateway) dispatchLocal(ctx context.Context, req *transport.Request, uid ids.Id, reservation costlayer.Reservation) (*Result, error) {
	switch req.Type {
	case "Gene":
		return gw.dispatchGene(ctx, req, uid, reservation)
	case "MemeMeta":
		return gw.memeMeta(ctx, req, uid, reservation)
	case "MemePut":
		return gw.memePut(ctx, req, uid, reservation)
	case "MemeGet":
		return gw.memeGet(ctx, req, uid, reservation)
	default:
		return nil, voerr.New(voerr.ApiUnknownQueryType)
	}
}

func (gw *Gateway) dispatchGene(ctx context.Context, req *transport.Request, uid ids.Id, reservation costlayer.Reservation) (*Result, error) {
	gid, err := req.RequireGid()
	if err != nil {
		return nil, err
	}
	body, remainder, err := gw.genes.Dispatch(ctx, gid, uid, reservation, gw.ledger, gw.rates, req.RequireArg())
	if err != nil {
		return nil, err
	}
	return &Result{Type: "Gene", Body: body, Remainder: remainder}, nil
}

func newGeneCtx(uid ids.Id, reservation costlayer.Reservation, ledger *audit.Ledger, rates costmodel.Rates) *gene.Ctx {
	return &gene.Ctx{
		Uid:      uid,
		Costs:    reservation.Remaining,
		Deadline: reservation.Deadline,
		Ledger:   ledger,
		Rates:    rates,
	}
}

func (gw *Gateway) memeMeta(ctx context.Context, req *transport.Request, uid ids.Id, reservation costlayer.Reservation) (*Result, error) {
	hash, err := req.RequireHash()
	if err != nil {
		return nil, err
	}
	g := newGeneCtx(uid, reservation, gw.ledger, gw.rates)
	body, err := meme.MemeMeta(ctx, g, gw.docs, hash)
	if err != nil {
		return nil, refundOnError(ctx, g, err)
	}
	return &Result{Type: "MemeMeta", Body: body, Remainder: g.Costs}, nil
}

func (gw *Gateway) memePut(ctx context.Context, req *transport.Request, uid ids.Id, reservation costlayer.Reservation) (*Result, error) {
	days, err := req.RequireDays()
	if err != nil {
		return nil, err
	}
	g := newGeneCtx(uid, reservation, gw.ledger, gw.rates)
	hash, err := meme.MemePut(ctx, g, gw.docs, gw.objs, gw.rates, days, req.Body)
	if err != nil {
		return nil, refundOnError(ctx, g, err)
	}
	body, err := json.Marshal(map[string]string{"hash": hash.String()})
	if err != nil {
		return nil, fmt.Errorf("marshaling meme put result: %w", err)
	}
	return &Result{Type: "MemePut", Body: string(body), Remainder: g.Costs}, nil
}

func (gw *Gateway) memeGet(ctx context.Context, req *transport.Request, uid ids.Id, reservation costlayer.Reservation) (*Result, error) {
	hash, err := req.RequireHash()
	if err != nil {
		return nil, err
	}
	public := req.Public != nil && *req.Public

	pr, pw := io.Pipe()
	g := newGeneCtx(uid, reservation, gw.ledger, gw.rates)
	go func() {
		err := meme.MemeGet(ctx, g, gw.docs, gw.objs, gw.ledger, gw.rates, hash, public, pw)
		_ = pw.CloseWithError(err)
	}()
	return &Result{Type: "MemeGet", Stream: pr, Remainder: g.Costs}, nil
}

// refundOnError recomputes time and refunds whatever budget remains after
// a Meme operation's failure, reusing the same protocol gene.Registry.Dispatch
// applies to a failed gene operation -- a failed request forfeits only the
// time it actually consumed.
func refundOnError(ctx context.Context, g *gene.Ctx, opErr error) error {
	_ = g.Time()
	if err := g.Refund(ctx); err != nil {
		return fmt.Errorf("refunding after meme error: %w", err)
	}
	return opErr
}

func (gw *Gateway) sessionStart(ctx context.Context, req *transport.Request) (*Result, error) {
	access, refresh, err := gw.auth.Start(ctx)
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(map[string]string{"access": access.String(), "refresh": refresh.String()})
	return &Result{Type: req.Type, Body: string(body), Remainder: req.Costs}, nil
}

func (gw *Gateway) sessionRefresh(ctx context.Context, req *transport.Request) (*Result, error) {
	if req.Refresh == nil {
		return nil, voerr.New(voerr.ApiMissingEntry)
	}
	access, err := gw.auth.Refresh(ctx, *req.Refresh)
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(map[string]string{"access": access.String()})
	return &Result{Type: req.Type, Body: string(body), Remainder: req.Costs}, nil
}

func (gw *Gateway) sessionEnd(ctx context.Context, req *transport.Request) (*Result, error) {
	access, err := req.RequireAccess()
	if err != nil {
		return nil, err
	}
	if err := gw.auth.End(ctx, access, req.Refresh); err != nil {
		return nil, err
	}
	return &Result{Type: req.Type, Body: "{}", Remainder: req.Costs}, nil
}

func (gw *Gateway) smsSendTo(ctx context.Context, req *transport.Request) (*Result, error) {
	access, err := req.RequireAccess()
	if err != nil {
		return nil, err
	}
	phone, message, err := gw.auth.SendSmsTo(ctx, access)
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(map[string]string{"phone": phone, "message": message.String()})
	return &Result{Type: req.Type, Body: string(body), Remainder: req.Costs}, nil
}

func (gw *Gateway) smsSent(ctx context.Context, req *transport.Request) (*Result, error) {
	access, err := req.RequireAccess()
	if err != nil {
		return nil, err
	}
	if req.Refresh == nil || req.Phone == nil || req.Message == nil {
		return nil, voerr.New(voerr.ApiMissingEntry)
	}
	uid, err := gw.auth.ConfirmSms(ctx, access, *req.Refresh, *req.Phone, *req.Message)
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(map[string]string{"uid": uid.String()})
	return &Result{Type: req.Type, Body: string(body), Remainder: req.Costs}, nil
}

func (gw *Gateway) costGet(ctx context.Context, req *transport.Request, uid ids.Id) (*Result, error) {
	credit, err := gw.cost.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(map[string]int64{"credit": credit})
	return &Result{Type: req.Type, Body: string(body), Remainder: req.Costs}, nil
}

func (gw *Gateway) costPay(ctx context.Context, req *transport.Request, uid ids.Id) (*Result, error) {
	if req.Vendor == nil {
		return nil, voerr.New(voerr.ApiMissingEntry)
	}
	uri, err := gw.cost.Pay(ctx, *req.Vendor)
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(map[string]string{"uri": uri})
	return &Result{Type: req.Type, Body: string(body), Remainder: req.Costs}, nil
}

func (gw *Gateway) costCheckIn(ctx context.Context, req *transport.Request, uid ids.Id) (*Result, error) {
	award, err := gw.cost.CheckIn(ctx, uid)
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(map[string]int64{"award": award})
	return &Result{Type: req.Type, Body: string(body), Remainder: req.Costs}, nil
}
