package server

import (
	"io"
	"mime/multipart"
	"time"

	"photoshare/internal/imaging"
	"photoshare/internal/models"
	"photoshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// readFormFile loads an optional multipart file into memory.
// Returns (nil, "", nil) when the field is absent.
func readFormFile(c *fiber.Ctx, field string) ([]byte, string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", nil
	}
	return readFileHeader(fileHeader)
}

func readFileHeader(fileHeader *multipart.FileHeader) ([]byte, string, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return content, fileHeader.Header.Get("Content-Type"), nil
}

// CreatePost handles POST /api/posts/create
// @Summary Create a photo post
// @Description Upload a photo with a description and up to five tags
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param description query string true "Post description"
// @Param tags query string false "Comma-separated tags"
// @Param user_email query string false "Owner email (admin only)"
// @Param file formData file true "Photo file"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/create [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := currentUserID(c)

	photo, contentType, err := readFormFile(c, "file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read photo file"))
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		ActorID:     userID,
		Description: c.Query("description"),
		Tags:        c.Query("tags"),
		UserEmail:   c.Query("user_email"),
		Photo:       photo,
		ContentType: contentType,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetMyPosts handles GET /api/posts
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	userID := currentUserID(c)
	page := parsePagination(c, 10)

	posts, err := s.postService.ListUserPosts(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetAllPosts handles GET /api/posts/all
func (s *Server) GetAllPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 10)

	posts, err := s.postService.ListPosts(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// SearchPosts handles POST /api/posts/search
// @Summary Search posts
// @Description Filter posts by query, tags, rating bucket and creation date
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{query=string,limit=int,offset=int,order=string,order_by=string,filter=object{rating=int,tags=[]string,show_date=string}} true "Search criteria"
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/search [post]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	var req struct {
		Query   string `json:"query"`
		Limit   int    `json:"limit"`
		Offset  int    `json:"offset"`
		Order   string `json:"order"`
		OrderBy string `json:"order_by"`
		Filter  struct {
			Rating   *int     `json:"rating"`
			Tags     []string `json:"tags"`
			ShowDate string   `json:"show_date"`
		} `json:"filter"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.SearchPostsInput{
		Query:   req.Query,
		Tags:    req.Filter.Tags,
		Rating:  req.Filter.Rating,
		Order:   req.Order,
		OrderBy: req.OrderBy,
		Limit:   req.Limit,
		Offset:  req.Offset,
	}
	if in.Limit <= 0 {
		in.Limit = 10
	}
	if in.Limit > maxPaginationLimit {
		in.Limit = maxPaginationLimit
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	if req.Filter.ShowDate != "" {
		showDate, parseErr := time.Parse("2006-01-02", req.Filter.ShowDate)
		if parseErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("show_date must be formatted YYYY-MM-DD"))
		}
		in.ShowDate = &showDate
	}

	posts, err := s.postService.SearchPosts(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// parseUpdateInput builds an UpdatePostInput from the request's query params
// and optional multipart photo. Shared by the owner and admin update routes.
func (s *Server) parseUpdateInput(c *fiber.Ctx, postID uint) (service.UpdatePostInput, error) {
	in := service.UpdatePostInput{
		ActorID: currentUserID(c),
		PostID:  postID,
	}

	if queryHas(c, "description") {
		description := c.Query("description")
		in.Description = &description
	}
	if queryHas(c, "tags") {
		tags := c.Query("tags")
		in.Tags = &tags
	}
	if effect := c.Query("effect"); effect != "" {
		parsed, err := imaging.ParseEffect(effect)
		if err != nil {
			return in, models.NewValidationError(err.Error())
		}
		in.Effect = parsed
	}

	photo, contentType, err := readFormFile(c, "file")
	if err != nil {
		return in, models.NewValidationError("Could not read photo file")
	}
	in.Photo = photo
	in.ContentType = contentType

	return in, nil
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update a post
// @Description Change description, replace tags, re-upload the photo or apply an effect
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param description query string false "New description"
// @Param tags query string false "Replacement tag set"
// @Param effect query string false "grayscale, sepia or pixelate"
// @Param file formData file false "Replacement photo"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	in, err := s.parseUpdateInput(c, postID)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.UpdatePost(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Remove a post; comments and ratings cascade, tags are kept
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.DeletePost(c.Context(), userID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// RatePost handles POST /api/posts/rate/:id?rating=1..5
// @Summary Rate a post
// @Description Record a 1-5 score; one rating per user per post, no self-rating
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param rating query int true "Score between 1 and 5"
// @Success 200 {object} object{post_id=int,rating=number}
// @Failure 404 {object} models.ErrorResponse
// @Failure 406 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/rate/{id} [post]
func (s *Server) RatePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	score := c.QueryInt("rating", 0)
	if score < 1 || score > 5 {
		return models.RespondWithError(c, fiber.StatusNotAcceptable,
			models.NewValidationError("Rating must be between 1 and 5"))
	}

	ratedID, avg, err := s.postService.RatePost(c.Context(), userID, postID, score)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"post_id": ratedID,
		"rating":  avg,
	})
}
