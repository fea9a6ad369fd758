package indexer

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rawblock/cloak-pool/internal/wsbus"
	"github.com/rawblock/cloak-pool/pkg/primitives"
)

// Handler wires the Merkle tree, its persistence store, the artifact
// store and the broadcast hub into the indexer's HTTP surface.
type Handler struct {
	tree      *Tree
	store     *Store
	artifacts *ArtifactStore
	hub       *wsbus.Hub
	log       *zap.Logger
}

func NewHandler(tree *Tree, store *Store, artifacts *ArtifactStore, hub *wsbus.Hub, log *zap.Logger) *Handler {
	return &Handler{tree: tree, store: store, artifacts: artifacts, hub: hub, log: log}
}

type depositRequest struct {
	LeafCommit      string `json:"leaf_commit" binding:"required"`
	EncryptedOutput string `json:"encrypted_output"`
	TxSignature     string `json:"tx_signature"`
	Slot            uint64 `json:"slot"`
}

// handleDeposit appends a new commitment to the tree, deduplicating by
// leaf_commit.
func (h *Handler) handleDeposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": err.Error()})
		return
	}

	commitBytes, err := hex.DecodeString(req.LeafCommit)
	if err != nil || len(commitBytes) != 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "leaf_commit must be 32 bytes of hex"})
		return
	}
	var commitment primitives.Hash32
	copy(commitment[:], commitBytes)

	var encrypted []byte
	if req.EncryptedOutput != "" {
		encrypted, err = base64.StdEncoding.DecodeString(req.EncryptedOutput)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "encrypted_output must be base64"})
			return
		}
	}

	for i := uint64(0); i < h.tree.Size(); i++ {
		if leaf, ok := h.tree.Leaf(i); ok && leaf == commitment {
			c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": "leaf_commit already indexed"})
			return
		}
	}

	index, changed, err := h.tree.Append(commitment)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "internal", "message": err.Error()})
		return
	}

	if h.store != nil {
		if err := h.store.InsertLeaf(c.Request.Context(), index, commitment, encrypted, req.TxSignature, req.Slot, changed); err != nil {
			if errors.Is(err, ErrCommitmentExists) {
				c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": "leaf_commit already indexed"})
				return
			}
			h.log.Error("persist leaf failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "failed to persist leaf"})
			return
		}
	}

	if h.hub != nil {
		h.hub.Broadcast([]byte(`{"type":"deposit","leafIndex":` + strconv.FormatUint(index, 10) + `,"root":"` + h.tree.Root().String() + `"}`))
	}

	c.JSON(http.StatusOK, gin.H{"leafIndex": index, "status": "added"})
}

func (h *Handler) handleMerkleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"root": h.tree.Root().String(), "tree_size": h.tree.Size()})
}

func (h *Handler) handleMerkleProof(c *gin.Context) {
	i, err := strconv.ParseUint(c.Param("i"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "index must be a non-negative integer"})
		return
	}

	siblings, root, err := h.tree.Proof(i)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
		return
	}

	proof := make([]string, len(siblings))
	for k, s := range siblings {
		proof[k] = s.String()
	}
	c.JSON(http.StatusOK, gin.H{"proof": proof, "index": i, "root": root.String()})
}

func (h *Handler) handleNotesRange(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "internal", "message": "store not connected"})
		return
	}
	start, _ := strconv.ParseUint(c.DefaultQuery("start", "0"), 10, 64)
	end, _ := strconv.ParseUint(c.DefaultQuery("end", "0"), 10, 64)
	if end <= start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "end must be greater than start"})
		return
	}

	rows, err := h.store.NotesRange(c.Request.Context(), start, end)
	if err != nil {
		h.log.Error("notes range query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "query failed"})
		return
	}

	out := make([]gin.H, len(rows))
	for k, r := range rows {
		out[k] = gin.H{"index": r.Index, "commitment": r.Commitment.String(), "signature": r.TxSignature}
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) handleArtifact(c *gin.Context) {
	art, ok := h.artifacts.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "unknown artifact"})
		return
	}
	c.Header("X-Content-SHA256", art.SHA256)
	c.Data(http.StatusOK, "application/octet-stream", art.Bytes)
}

// handleAdminPushRoot acknowledges that the admin has pushed the
// current root on-chain and records it for later reconciliation
// cross-checks. The actual on-chain AdminPushRoot call belongs to the
// relay, which holds the admin signing authority; this endpoint just
// lets the operator confirm the indexer's root matched what went on
// the host ledger.
func (h *Handler) handleAdminPushRoot(c *gin.Context) {
	root := h.tree.Root()
	size := h.tree.Size()
	if h.store != nil {
		if err := h.store.RecordPushedRoot(context.Background(), root, size); err != nil {
			h.log.Error("record pushed root failed", zap.Error(err))
		}
	}
	if h.hub != nil {
		h.hub.Broadcast([]byte(`{"type":"root_pushed","root":"` + root.String() + `"}`))
	}
	c.JSON(http.StatusOK, gin.H{"root": root.String(), "tree_size": size})
}

type reconcileLeafRequest struct {
	LeafCommit string `json:"leaf_commit" binding:"required"`
	Slot       uint64 `json:"slot"`
}

// handleReconcileLeaf backfills a leaf for a commitment that arrived
// through UnstakeToPool's direct root push rather than through
// Deposit, so the indexer's tree and the on-chain ring converge on
// the same set of admitted commitments.
func (h *Handler) handleReconcileLeaf(c *gin.Context) {
	var req reconcileLeafRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": err.Error()})
		return
	}
	commitBytes, err := hex.DecodeString(req.LeafCommit)
	if err != nil || len(commitBytes) != 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "leaf_commit must be 32 bytes of hex"})
		return
	}
	var commitment primitives.Hash32
	copy(commitment[:], commitBytes)

	index, changed, err := h.tree.Append(commitment)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "internal", "message": err.Error()})
		return
	}
	if h.store != nil {
		if err := h.store.InsertLeaf(c.Request.Context(), index, commitment, nil, "", req.Slot, changed); err != nil && !errors.Is(err, ErrCommitmentExists) {
			h.log.Error("reconcile leaf persist failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "failed to persist leaf"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"leafIndex": index, "status": "reconciled"})
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "operational",
		"treeSize":  h.tree.Size(),
		"treeDepth": h.tree.Height(),
	})
}
