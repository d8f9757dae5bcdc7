package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ralph-xpert/internal/export"
	"ralph-xpert/internal/leads"
)

type ContactHandler struct {
	Leads  *leads.Service
	Logger *zap.Logger
}

func NewContactHandler(svc *leads.Service, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{Leads: svc, Logger: logger}
}

func (h *ContactHandler) GetContacts(c *gin.Context) {
	contacts, err := h.Leads.ListContacts(c.Request.Context())
	if err != nil {
		serviceError(c, h.Logger, err, "Contact not found", "Failed to fetch contacts")
		return
	}
	success(c, http.StatusOK, leads.MatchContacts(contacts, c.Query("q")), "")
}

type CreateContactRequest struct {
	Nom      string `json:"nom"`
	CodePays string `json:"codePays"`
	Numero   string `json:"numero"`
}

func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, leads.MsgAllFieldsRequired)
		return
	}

	contact, err := h.Leads.AddContact(c.Request.Context(), req.Nom, req.CodePays, req.Numero)
	if err != nil {
		serviceError(c, h.Logger, err, "Contact not found", "Failed to save contact")
		return
	}
	success(c, http.StatusOK, contact, "Contact saved successfully")
}

type UpdateContactRequest struct {
	Nom           string `json:"nom"`
	NumeroComplet string `json:"numeroComplet"`
}

func (h *ContactHandler) UpdateContact(c *gin.Context) {
	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, leads.MsgNameAndNumberRequired)
		return
	}

	if err := h.Leads.UpdateContact(c.Request.Context(), c.Param("id"), req.Nom, req.NumeroComplet); err != nil {
		serviceError(c, h.Logger, err, "Contact not found", "Failed to update contact")
		return
	}
	success(c, http.StatusOK, nil, "Contact updated successfully")
}

func (h *ContactHandler) DeleteContact(c *gin.Context) {
	if err := h.Leads.DeleteContact(c.Request.Context(), c.Param("id")); err != nil {
		serviceError(c, h.Logger, err, "Contact not found", "Failed to delete contact")
		return
	}
	success(c, http.StatusOK, nil, "Contact deleted successfully")
}

func (h *ContactHandler) DeleteAllContacts(c *gin.Context) {
	if err := h.Leads.DeleteAllContacts(c.Request.Context()); err != nil {
		serviceError(c, h.Logger, err, "Contact not found", "Failed to delete contacts")
		return
	}
	success(c, http.StatusOK, nil, "All contacts deleted successfully")
}

func (h *ContactHandler) SearchContacts(c *gin.Context) {
	contacts, err := h.Leads.SearchContacts(c.Request.Context(), c.Query("q"))
	if err != nil {
		serviceError(c, h.Logger, err, "Contact not found", "Failed to search contacts")
		return
	}
	success(c, http.StatusOK, contacts, "")
}

func (h *ContactHandler) DownloadVCF(c *gin.Context) {
	contacts, err := h.Leads.ListContacts(c.Request.Context())
	if err != nil {
		serviceError(c, h.Logger, err, "Contact not found", "Failed to generate VCF file")
		return
	}

	filename := export.Filename("contacts", "vcf", h.Leads.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/vcard; charset=utf-8", []byte(export.VCF(contacts, h.Leads.Location())))
}
