package httpapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/kabyedict/internal/common"
	"github.com/dmitrijs2005/kabyedict/internal/server/codec"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/services"
)

// entryRequest is the JSON form of an entry submission. Absent keys leave
// the stored value unchanged on update.
type entryRequest struct {
	Headword           *string              `json:"headword"`
	Variants           *[]string            `json:"variants"`
	Phonetic           *string              `json:"phonetic"`
	Translation        *string              `json:"translation"`
	Senses             *[]string            `json:"senses"`
	Synonyms           *[]string            `json:"synonyms"`
	Category           *string              `json:"category"`
	Subcategory        *string              `json:"subcategory"`
	Etymology          *string              `json:"etymology"`
	Example            *string              `json:"example"`
	ExampleTranslation *string              `json:"example_translation"`
	Expressions        *[]models.Expression `json:"expressions"`
	UsageNotes         *string              `json:"usage_notes"`
	ReviewerName       *string              `json:"reviewer_name"`
	RemoveImage        bool                 `json:"remove_image"`
}

func (r entryRequest) fields() models.EntryFields {
	return models.EntryFields{
		Headword:           r.Headword,
		Variants:           r.Variants,
		Phonetic:           r.Phonetic,
		Translation:        r.Translation,
		Senses:             r.Senses,
		Synonyms:           r.Synonyms,
		Category:           r.Category,
		Subcategory:        r.Subcategory,
		Etymology:          r.Etymology,
		Example:            r.Example,
		ExampleTranslation: r.ExampleTranslation,
		Expressions:        r.Expressions,
		UsageNotes:         r.UsageNotes,
		ReviewerName:       r.ReviewerName,
	}
}

// entryInput is a decoded submission, from JSON or from the web form.
type entryInput struct {
	fields      models.EntryFields
	image       *services.Image
	removeImage bool
}

// maxFormMemory bounds the in-memory part of a multipart form.
const maxFormMemory = 8 << 20

func readEntryInput(c *gin.Context) (entryInput, error) {
	if strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		return readEntryForm(c)
	}

	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return entryInput{}, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return entryInput{fields: req.fields(), removeImage: req.RemoveImage}, nil
}

// readEntryForm reads the web form. Field names are those of the original
// form; list fields use the form separators.
func readEntryForm(c *gin.Context) (entryInput, error) {
	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil {
		return entryInput{}, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	form := c.Request.MultipartForm

	var markup error
	text := func(name string) *string {
		v, ok := form.Value[name]
		if !ok || len(v) == 0 {
			return nil
		}
		if err := checkMarkup(name, v[0]); err != nil && markup == nil {
			markup = err
		}
		s := v[0]
		return &s
	}
	list := func(name string, parse func(string) []string) *[]string {
		v := text(name)
		if v == nil {
			return nil
		}
		items := parse(*v)
		return &items
	}

	f := models.EntryFields{
		Headword:           text("mot_kabye"),
		Variants:           list("variantes_orthographiques", codec.ParseCommaList),
		Phonetic:           text("api"),
		Translation:        text("traduction_francaise"),
		Senses:             list("sens_multiple", codec.ParseSemicolonList),
		Synonyms:           list("synonymes", codec.ParseCommaList),
		Category:           text("categorie_grammaticale"),
		Subcategory:        text("sous_categorie"),
		Etymology:          text("origine_mot"),
		Example:            text("exemple_usage"),
		ExampleTranslation: text("traduction_exemple"),
		UsageNotes:         text("notes_usage"),
		ReviewerName:       text("verifie_par"),
	}
	if v := text("expressions_associees"); v != nil {
		expressions := codec.ParseExpressionLines(*v)
		f.Expressions = &expressions
	}

	in := entryInput{fields: f}
	if v := text("supprimer_image"); v != nil {
		in.removeImage, _ = strconv.ParseBool(*v)
	}
	if markup != nil {
		return entryInput{}, markup
	}

	img, err := readImage(form)
	if err != nil {
		return entryInput{}, err
	}
	in.image = img
	return in, nil
}

func readImage(form *multipart.Form) (*services.Image, error) {
	files := form.File["image"]
	if len(files) == 0 || files[0].Filename == "" {
		return nil, nil
	}

	file, err := files[0].Open()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read image: %v", common.ErrorValidation, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read image: %v", common.ErrorValidation, err)
	}
	return &services.Image{Data: data}, nil
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", common.ErrorValidation, c.Param("id"))
	}
	return id, nil
}

// firstQuery returns the first non-empty query parameter among names.
func firstQuery(c *gin.Context, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(c.Query(n)); v != "" {
			return v
		}
	}
	return ""
}

