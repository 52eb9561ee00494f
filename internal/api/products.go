package api

import (
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/vitrina/internal/blob"
	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/imaging"
	"github.com/erazemk/vitrina/internal/model"
)

// maxPhotoSize bounds a photo upload request.
const maxPhotoSize = 10 << 20

// ProductsHandler handles catalog browsing and administration. Every
// endpoint works on the sector selected in the session.
type ProductsHandler struct {
	Catalog catalog.Store
	Blobs   blob.Store
}

// productView adds the derived name parts to a product.
type productView struct {
	model.Product
	BaseName string `json:"base_name"`
	Brand    string `json:"brand"`
}

func viewOf(p model.Product) productView {
	return productView{Product: p, BaseName: p.BaseName(), Brand: p.Brand()}
}

func viewsOf(products []model.Product) []productView {
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = viewOf(p)
	}
	return views
}

type productRequest struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Description *string `json:"description"`
	RelatedIDs  *string `json:"related_product_ids"`
}

// Search handles GET /api/products.
func (h *ProductsHandler) Search(w http.ResponseWriter, r *http.Request) {
	sector := GetClaims(r.Context()).Sector
	products, err := catalog.FetchAll(r.Context(), h.Catalog, sector)
	if err != nil {
		writeError(w, "search products", err)
		return
	}

	q := r.URL.Query()
	query := strings.ToLower(strings.TrimSpace(q.Get("q")))
	results := catalog.Search(query, products, q["brand"])
	jsonResponse(w, http.StatusOK, map[string]any{
		"products": viewsOf(results),
		"brands":   orEmpty(catalog.Brands(products)),
	})
}

// Brands handles GET /api/brands.
func (h *ProductsHandler) Brands(w http.ResponseWriter, r *http.Request) {
	products, err := catalog.FetchAll(r.Context(), h.Catalog, GetClaims(r.Context()).Sector)
	if err != nil {
		writeError(w, "list brands", err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(catalog.Brands(products)))
}

// Get handles GET /api/products/{id}. Related products that no longer exist
// are left out.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	sector := GetClaims(r.Context()).Sector
	p, err := catalog.GetInSector(r.Context(), h.Catalog, id, sector)
	if err != nil {
		writeError(w, "get product", err)
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}

	related := []productView{}
	for _, relatedID := range p.RelatedIDs {
		rp, err := catalog.GetInSector(r.Context(), h.Catalog, relatedID, sector)
		if err != nil {
			writeError(w, "get related product", err)
			return
		}
		if rp != nil {
			related = append(related, viewOf(*rp))
		}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"product": viewOf(*p),
		"related": related,
	})
}

// Related handles GET /api/products/related, the lookup used when picking
// related products in the editor.
func (h *ProductsHandler) Related(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var excludeID int64
	if s := q.Get("exclude_id"); s != "" {
		var err error
		if excludeID, err = strconv.ParseInt(s, 10, 64); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid exclude_id")
			return
		}
	}

	products, err := catalog.FetchAll(r.Context(), h.Catalog, GetClaims(r.Context()).Sector)
	if err != nil {
		writeError(w, "related lookup", err)
		return
	}
	jsonResponse(w, http.StatusOK, viewsOf(catalog.Related(q.Get("q"), products, excludeID)))
}

// AdminList handles GET /api/admin/products.
func (h *ProductsHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	products, err := catalog.FetchAll(r.Context(), h.Catalog, GetClaims(r.Context()).Sector)
	if err != nil {
		writeError(w, "list products", err)
		return
	}
	sort.SliceStable(products, func(i, j int) bool {
		return strings.ToLower(products[i].Name) < strings.ToLower(products[j].Name)
	})
	jsonResponse(w, http.StatusOK, viewsOf(products))
}

// Create handles POST /api/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		jsonError(w, http.StatusBadRequest, "name is required")
		return
	}

	claims := GetClaims(r.Context())
	p := &model.Product{
		Name:   model.JoinName(req.Name, req.Brand, ""),
		Sector: claims.Sector,
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.RelatedIDs != nil {
		p.RelatedIDs = relatedIDs(*req.RelatedIDs)
	}

	created, err := h.Catalog.CreateProduct(r.Context(), p)
	if err != nil {
		writeError(w, "create product", err)
		return
	}

	slog.Info("product created", "user", claims.Username, "product", created.Name, "sector", created.Sector)
	jsonResponse(w, http.StatusCreated, viewOf(*created))
}

// Update handles PUT /api/products/{id}. An empty name keeps the current base
// name and an empty brand keeps the current brand.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	p, err := catalog.GetInSector(r.Context(), h.Catalog, id, claims.Sector)
	if err != nil {
		writeError(w, "update product", err)
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}

	base := req.Name
	if strings.TrimSpace(base) == "" {
		base = p.BaseName()
	}
	p.Name = model.JoinName(base, req.Brand, p.Name)
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.RelatedIDs != nil {
		p.RelatedIDs = relatedIDs(*req.RelatedIDs)
	}

	if err := h.Catalog.UpdateProduct(r.Context(), p); err != nil {
		writeError(w, "update product", err)
		return
	}

	slog.Info("product updated", "user", claims.Username, "product_id", id, "name", p.Name)
	jsonResponse(w, http.StatusOK, viewOf(*p))
}

// relatedIDs parses an edited related-products list. Any invalid entry
// clears the whole list.
func relatedIDs(s string) []int64 {
	ids, err := model.ParseRelatedIDs(s)
	if err != nil {
		slog.Warn("discarding related product list", "value", s, "error", err)
		return nil
	}
	return ids
}

// Delete handles DELETE /api/products/{id}.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	claims := GetClaims(r.Context())
	if err := h.Catalog.DeleteProduct(r.Context(), id, claims.Sector); err != nil {
		writeError(w, "delete product", err)
		return
	}

	slog.Info("product deleted", "user", claims.Username, "product_id", id, "sector", claims.Sector)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// UploadPhoto handles POST /api/products/{id}/photo. The photo is normalized
// to JPEG, stored in blob storage and its URL saved on the product.
func (h *ProductsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	claims := GetClaims(r.Context())
	p, err := catalog.GetInSector(r.Context(), h.Catalog, id, claims.Sector)
	if err != nil {
		writeError(w, "upload photo", err)
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSuffix(header.Filename, path.Ext(header.Filename)) + ".jpg"
	url, err := h.Blobs.Upload(r.Context(), blob.ObjectPath(name, time.Now()), photo.Data, photo.MIME)
	if err != nil {
		slog.Error("failed to store photo", "product_id", id, "error", err)
		jsonError(w, http.StatusBadGateway, "failed to store photo")
		return
	}

	if err := h.Catalog.SetProductImage(r.Context(), id, url); err != nil {
		writeError(w, "set product image", err)
		return
	}
	p.Image = url

	slog.Info("product photo uploaded", "user", claims.Username, "product_id", id, "url", url)
	jsonResponse(w, http.StatusOK, viewOf(*p))
}

// Offers handles GET /api/clearance.
func (h *ProductsHandler) Offers(w http.ResponseWriter, r *http.Request) {
	products, err := catalog.FetchAll(r.Context(), h.Catalog, GetClaims(r.Context()).Sector)
	if err != nil {
		writeError(w, "list clearance offers", err)
		return
	}
	jsonResponse(w, http.StatusOK, viewsOf(catalog.ActiveOffers(products)))
}

// AdminClearance handles GET /api/admin/clearance.
func (h *ProductsHandler) AdminClearance(w http.ResponseWriter, r *http.Request) {
	products, err := catalog.FetchAll(r.Context(), h.Catalog, GetClaims(r.Context()).Sector)
	if err != nil {
		writeError(w, "list clearance", err)
		return
	}
	clearance, regular := catalog.SplitClearance(products)
	jsonResponse(w, http.StatusOK, map[string]any{
		"clearance": viewsOf(clearance),
		"regular":   viewsOf(regular),
	})
}

// ToggleClearance handles POST /api/products/{id}/clearance/toggle.
func (h *ProductsHandler) ToggleClearance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	claims := GetClaims(r.Context())
	on, err := catalog.ToggleClearance(r.Context(), h.Catalog, id, claims.Sector)
	if err != nil {
		writeError(w, "toggle clearance", err)
		return
	}

	slog.Info("clearance toggled", "user", claims.Username, "product_id", id, "clearance", on)
	jsonResponse(w, http.StatusOK, map[string]bool{"clearance": on})
}

type clearancePricesRequest struct {
	OriginalPrice  priceInput `json:"original_price"`
	ClearancePrice priceInput `json:"clearance_price"`
}

// priceInput accepts a price sent either as a JSON number or a string.
type priceInput string

func (p *priceInput) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	} else if s == "null" {
		s = ""
	}
	*p = priceInput(s)
	return nil
}

// SetClearancePrices handles PUT /api/products/{id}/clearance.
func (h *ProductsHandler) SetClearancePrices(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req clearancePricesRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	original, clearance := string(req.OriginalPrice), string(req.ClearancePrice)

	if _, _, err := catalog.ParseClearancePrices(original, clearance); err != nil {
		writeError(w, "set clearance prices", err)
		return
	}

	claims := GetClaims(r.Context())
	p, err := catalog.GetInSector(r.Context(), h.Catalog, id, claims.Sector)
	if err != nil {
		writeError(w, "set clearance prices", err)
		return
	}
	if p == nil {
		writeError(w, "set clearance prices", catalog.ErrNotFound)
		return
	}

	if err := catalog.SetClearancePricing(r.Context(), h.Catalog, id, original, clearance); err != nil {
		writeError(w, "set clearance prices", err)
		return
	}

	slog.Info("clearance prices set", "user", claims.Username, "product_id", id,
		"original", original, "clearance", clearance)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "clearance prices updated"})
}
