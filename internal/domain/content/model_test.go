package content

import (
	"errors"
	"strings"
	"testing"
)

func TestPost_Validate(t *testing.T) {
	t.Parallel()

	image := &Image{Name: "card.png", Data: []byte{1}}

	cases := []struct {
		name string
		post Post
		want error
	}{
		{name: "empty", post: Post{Text: " \n"}, want: ErrEmptyPost},
		{name: "text at limit", post: Post{Text: strings.Repeat("é", MaxTextRunes)}},
		{name: "text over limit", post: Post{Text: strings.Repeat("é", MaxTextRunes+1)}, want: ErrPostTooLong},
		{name: "caption at limit", post: Post{Text: strings.Repeat("x", MaxCaptionRunes), Image: image}},
		{name: "caption over limit", post: Post{Text: strings.Repeat("x", MaxCaptionRunes+1), Image: image}, want: ErrPostTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.post.Validate()
			if tc.want == nil && err != nil {
				t.Fatalf("expected valid post, got %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
