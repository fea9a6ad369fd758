package relay

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

// Handler wires the job store and claim manager into the relay's HTTP
// surface.
type Handler struct {
	store  *Store
	claims *ClaimManager
	log    *zap.Logger
}

func NewHandler(store *Store, claims *ClaimManager, log *zap.Logger) *Handler {
	return &Handler{store: store, claims: claims, log: log}
}

type outputDTO struct {
	Recipient string `json:"recipient" binding:"required"`
	Amount    uint64 `json:"amount" binding:"required"`
}

type withdrawRequest struct {
	Outputs      []outputDTO `json:"outputs" binding:"required"`
	FeeBps       uint32      `json:"fee_bps"`
	Fee          uint64      `json:"fee"`
	Amount       uint64      `json:"amount" binding:"required"`
	PublicInputs string      `json:"public_inputs" binding:"required"`
	ProofBytes   string      `json:"proof_bytes"`
}

// handleWithdraw ingests a withdraw job: validates shape and
// conservation, assigns a request id, and synchronously reserves the
// nullifier in the local index before acknowledging the caller.
func (h *Handler) handleWithdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": err.Error()})
		return
	}

	outputs := make([]Output, len(req.Outputs))
	for i, o := range req.Outputs {
		recipientBytes, err := hex.DecodeString(o.Recipient)
		if err != nil || len(recipientBytes) != 32 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "recipient must be 32 bytes of hex"})
			return
		}
		var recipient primitives.Hash32
		copy(recipient[:], recipientBytes)
		outputs[i] = Output{Recipient: recipient, Amount: o.Amount}
	}

	publicInputs, err := decodeHexOrBase64(req.PublicInputs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "public_inputs must be hex or base64"})
		return
	}

	if err := ValidateWithdrawRequest(outputs, req.FeeBps, req.Amount, req.Fee, publicInputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": err.Error()})
		return
	}

	nullifier, err := ExtractNullifier(publicInputs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": err.Error()})
		return
	}

	var proofBytes []byte
	if req.ProofBytes != "" {
		proofBytes, err = decodeHexOrBase64(req.ProofBytes)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "proof_bytes must be hex or base64"})
			return
		}
	}

	kind := KindWithdraw
	if len(outputs) > 1 {
		kind = KindBatchWithdraw
	}

	job := &Job{
		ID:           uuid.NewString(),
		Kind:         kind,
		Status:       StatusQueued,
		Outputs:      outputs,
		FeeBps:       req.FeeBps,
		PublicInputs: publicInputs,
		ProofBytes:   proofBytes,
		Nullifier:    nullifier,
	}

	if err := h.store.InsertJob(c.Request.Context(), job); err != nil {
		if errors.Is(err, ErrDuplicateNullifier) {
			c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": "nullifier already queued"})
			return
		}
		h.log.Error("insert job failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "failed to queue job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request_id": job.ID, "status": job.Status})
}

type unstakeRequest struct {
	StakeAccount      string `json:"stake_account" binding:"required"`
	WithdrawAuthority string `json:"withdraw_authority" binding:"required"`
	Commitment        string `json:"commitment" binding:"required"`
	StakeAccountHash  string `json:"stake_account_hash" binding:"required"`
	Amount            uint64 `json:"amount" binding:"required"`
	ProofBytes        string `json:"proof_bytes"`
}

// handleUnstake wraps UnstakeToPool as a relay job: shares the same
// queue/status machinery as a withdraw, but carries no nullifier
// (the commitment is the dedupe key, not a per-note nullifier).
func (h *Handler) handleUnstake(c *gin.Context) {
	var req unstakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": err.Error()})
		return
	}

	commitBytes, err := hex.DecodeString(req.Commitment)
	if err != nil || len(commitBytes) != 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "commitment must be 32 bytes of hex"})
		return
	}
	var commitment primitives.Hash32
	copy(commitment[:], commitBytes)

	var proofBytes []byte
	if req.ProofBytes != "" {
		proofBytes, err = decodeHexOrBase64(req.ProofBytes)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "proof_bytes must be hex or base64"})
			return
		}
	}

	job := &Job{
		ID:           uuid.NewString(),
		Kind:         KindUnstake,
		Status:       StatusQueued,
		Nullifier:    commitment, // reused as the dedupe key for this job kind
		ProofBytes:   proofBytes,
		PublicInputs: commitBytes,
	}

	if err := h.store.InsertJob(c.Request.Context(), job); err != nil {
		if errors.Is(err, ErrDuplicateNullifier) {
			c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": "commitment already queued"})
			return
		}
		h.log.Error("insert unstake job failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "failed to queue job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request_id": job.ID, "status": job.Status})
}

type orchestrateRequest struct {
	Nullifier string `json:"nullifier" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
	Amount    uint64 `json:"amount" binding:"required"`
	Root      string `json:"root" binding:"required"`
}

// handleOrchestrate builds the public-inputs tuple for a withdraw from
// its logical components and queues the job without a proof attached;
// the job is picked up and requeued by the processor until a prover
// attaches proof_bytes out of band.
func (h *Handler) handleOrchestrate(c *gin.Context) {
	var req orchestrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": err.Error()})
		return
	}

	nullifierBytes, err1 := hex.DecodeString(req.Nullifier)
	recipientBytes, err2 := hex.DecodeString(req.Recipient)
	rootBytes, err3 := hex.DecodeString(req.Root)
	if err1 != nil || err2 != nil || err3 != nil || len(nullifierBytes) != 32 || len(recipientBytes) != 32 || len(rootBytes) != 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "nullifier, recipient and root must each be 32 bytes of hex"})
		return
	}

	var nullifier, recipient, root primitives.Hash32
	copy(nullifier[:], nullifierBytes)
	copy(recipient[:], recipientBytes)
	copy(root[:], rootBytes)

	fee := primitives.Fee(req.Amount)
	if fee >= req.Amount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "amount too small to cover the fee schedule"})
		return
	}
	recipientAmount := req.Amount - fee
	outputsHash := primitives.OutputsHashSingle(recipient, recipientAmount)

	publicInputs := make([]byte, 0, 128)
	publicInputs = append(publicInputs, root[:]...)
	publicInputs = append(publicInputs, nullifier[:]...)
	publicInputs = append(publicInputs, outputsHash[:]...)
	publicInputs = append(publicInputs, primitives.LE8(req.Amount)...)

	job := &Job{
		ID:           uuid.NewString(),
		Kind:         KindWithdraw,
		Status:       StatusQueued,
		Outputs:      []Output{{Recipient: recipient, Amount: recipientAmount}},
		PublicInputs: publicInputs,
		Nullifier:    nullifier,
	}

	if err := h.store.InsertJob(c.Request.Context(), job); err != nil {
		if errors.Is(err, ErrDuplicateNullifier) {
			c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": "nullifier already queued"})
			return
		}
		h.log.Error("insert orchestrated job failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "failed to queue job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request_id": job.ID, "status": job.Status, "public_inputs": hex.EncodeToString(publicInputs)})
}

func (h *Handler) handleStatus(c *gin.Context) {
	job, err := h.store.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "unknown job id"})
			return
		}
		h.log.Error("get job failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "failed to load job"})
		return
	}

	resp := gin.H{"status": job.Status, "kind": job.Kind}
	if job.LastError != "" {
		resp["error"] = job.LastError
	}
	if job.WithdrawSig != "" {
		resp["withdraw_signature"] = job.WithdrawSig
	}
	if job.ExecuteSig != "" {
		resp["execute_signature"] = job.ExecuteSig
	}
	c.JSON(http.StatusOK, resp)
}

type submitRequest struct {
	JobID         string `json:"job_id" binding:"required"`
	SignedTxBytes string `json:"signed_tx_bytes" binding:"required"`
}

// handleSubmit accepts a caller-provided pre-signed transaction and
// attaches it as the job's proof-ready payload, for wallets that sign
// client-side instead of delegating signing to the relay.
func (h *Handler) handleSubmit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": err.Error()})
		return
	}

	job, err := h.store.GetJob(c.Request.Context(), req.JobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "unknown job id"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "failed to load job"})
		return
	}

	signedBytes, err := decodeHexOrBase64(req.SignedTxBytes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "signed_tx_bytes must be hex or base64"})
		return
	}
	job.ProofBytes = signedBytes
	if err := h.store.UpdateJob(c.Request.Context(), job); err != nil {
		h.log.Error("attach signed tx failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "failed to attach transaction"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": job.ID, "status": job.Status})
}

func decodeHexOrBase64(s string) ([]byte, error) {
	if b, err := hex.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(s)
}
