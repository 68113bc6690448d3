package models

import "time"

type Link struct {
	Title string `json:"title" bson:"title"`
	URL   string `json:"url" bson:"url"`
}

type Reply struct {
	ID        string      `json:"_id" bson:"_id"`
	User      UserSummary `json:"user" bson:"user"`
	Answer    string      `json:"answer" bson:"answer"`
	CreatedAt time.Time   `json:"createdAt" bson:"created_at"`
}

type Question struct {
	ID        string      `json:"_id" bson:"_id"`
	User      UserSummary `json:"user" bson:"user"`
	Question  string      `json:"question" bson:"question"`
	Replies   []Reply     `json:"questionReplies" bson:"replies"`
	CreatedAt time.Time   `json:"createdAt" bson:"created_at"`
}

type ReviewReply struct {
	ID        string      `json:"_id" bson:"_id"`
	User      UserSummary `json:"user" bson:"user"`
	Comment   string      `json:"comment" bson:"comment"`
	CreatedAt time.Time   `json:"createdAt" bson:"created_at"`
}

type Review struct {
	ID        string        `json:"_id" bson:"_id"`
	User      UserSummary   `json:"user" bson:"user"`
	Rating    float64       `json:"rating" bson:"rating"`
	Comment   string        `json:"comment" bson:"comment"`
	Replies   []ReviewReply `json:"commentReplies,omitempty" bson:"replies,omitempty"`
	CreatedAt time.Time     `json:"createdAt" bson:"created_at"`
}

// ContentItem is one lesson of a course and owns its question thread.
type ContentItem struct {
	ID             string     `json:"_id" bson:"_id"`
	Title          string     `json:"title" bson:"title"`
	Description    string     `json:"description" bson:"description"`
	VideoURL       string     `json:"videoUrl,omitempty" bson:"video_url"`
	VideoThumbnail *Asset     `json:"videoThumbnail,omitempty" bson:"video_thumbnail,omitempty"`
	VideoSection   string     `json:"videoSection" bson:"video_section"`
	VideoLength    int        `json:"videoLength" bson:"video_length"`
	VideoPlayer    string     `json:"videoPlayer,omitempty" bson:"video_player"`
	Links          []Link     `json:"links,omitempty" bson:"links"`
	Suggestion     string     `json:"suggestion,omitempty" bson:"suggestion"`
	Questions      []Question `json:"questions,omitempty" bson:"questions"`
}

// Course is a single document: content items, questions, reviews and replies
// are all embedded and never referenced from outside it.
type Course struct {
	ID             string        `json:"_id" bson:"_id"`
	Revision       int64         `json:"revision" bson:"revision"`
	Name           string        `json:"name" bson:"name"`
	Description    string        `json:"description" bson:"description"`
	Price          float64       `json:"price" bson:"price"`
	EstimatedPrice float64       `json:"estimatedPrice,omitempty" bson:"estimated_price,omitempty"`
	Thumbnail      *Asset        `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	Tags           string        `json:"tags" bson:"tags"`
	Level          string        `json:"level" bson:"level"`
	DemoURL        string        `json:"demoUrl" bson:"demo_url"`
	Benefits       []string      `json:"benefits" bson:"benefits"`
	Prerequisites  []string      `json:"prerequisites" bson:"prerequisites"`
	Reviews        []Review      `json:"reviews" bson:"reviews"`
	Content        []ContentItem `json:"courseData" bson:"content"`
	Ratings        float64       `json:"ratings" bson:"ratings"`
	Purchased      int           `json:"purchased" bson:"purchased"`
	CreatedAt      time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updatedAt" bson:"updated_at"`
}

func (c *Course) ContentItem(id string) *ContentItem {
	for i := range c.Content {
		if c.Content[i].ID == id {
			return &c.Content[i]
		}
	}
	return nil
}

func (c *Course) Review(id string) *Review {
	for i := range c.Reviews {
		if c.Reviews[i].ID == id {
			return &c.Reviews[i]
		}
	}
	return nil
}

func (item *ContentItem) Question(id string) *Question {
	for i := range item.Questions {
		if item.Questions[i].ID == id {
			return &item.Questions[i]
		}
	}
	return nil
}

// RecomputeRatings sets Ratings to the arithmetic mean of all review ratings.
func (c *Course) RecomputeRatings() {
	if len(c.Reviews) == 0 {
		c.Ratings = 0
		return
	}
	var total float64
	for _, r := range c.Reviews {
		total += r.Rating
	}
	c.Ratings = total / float64(len(c.Reviews))
}

// Public strips the fields reserved for enrolled users from every content item.
func (c Course) Public() Course {
	items := make([]ContentItem, len(c.Content))
	for i, item := range c.Content {
		items[i] = ContentItem{
			ID:             item.ID,
			Title:          item.Title,
			Description:    item.Description,
			VideoThumbnail: item.VideoThumbnail,
			VideoSection:   item.VideoSection,
			VideoLength:    item.VideoLength,
		}
	}
	c.Content = items
	return c
}

// Clone returns a deep copy so callers can mutate nested threads without
// touching a shared instance.
func (c Course) Clone() Course {
	out := c
	out.Benefits = append([]string(nil), c.Benefits...)
	out.Prerequisites = append([]string(nil), c.Prerequisites...)
	if c.Thumbnail != nil {
		thumb := *c.Thumbnail
		out.Thumbnail = &thumb
	}

	out.Reviews = make([]Review, len(c.Reviews))
	for i, r := range c.Reviews {
		r.Replies = append([]ReviewReply(nil), r.Replies...)
		out.Reviews[i] = r
	}

	out.Content = make([]ContentItem, len(c.Content))
	for i, item := range c.Content {
		item.Links = append([]Link(nil), item.Links...)
		questions := make([]Question, len(item.Questions))
		for j, q := range item.Questions {
			q.Replies = append([]Reply(nil), q.Replies...)
			questions[j] = q
		}
		item.Questions = questions
		out.Content[i] = item
	}
	return out
}
