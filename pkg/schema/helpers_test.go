package schema

import "errors"

type testAddress struct {
	Street string  `json:"street,required"`
	City   *string `json:"city"`
}

type testPerson struct {
	Name     string            `json:"name,required"`
	Age      *int              `json:"age"`
	Score    *float64          `json:"score"`
	Active   *bool             `json:"active"`
	Tags     []string          `json:"tags"`
	Labels   map[string]string `json:"labels"`
	Address  *testAddress      `json:"address"`
	Contacts []testAddress     `json:"previous_addresses"`
	Extra    Extras            `json:"-"`
}

type testCounter struct {
	Count int8 `json:"count,required"`
}

type testBadOptional struct {
	Name string `json:"name"`
}

type testDuplicate struct {
	A *string `json:"x"`
	B *string `json:"x"`
}

type testColor string

func (c testColor) IsKnown() bool {
	switch c {
	case "red", "green":
		return true
	}
	return false
}

type testPaint struct {
	Color  testColor `json:"color,required"`
	Amount *int      `json:"amount"`
}

func (p testPaint) ValidateRecord() error {
	if p.Amount != nil && *p.Amount < 0 {
		return Invalid("amount", errors.New("must not be negative"))
	}
	return nil
}

type testCircle struct {
	Radius float64 `json:"radius,required"`
	Label  *string `json:"label"`
	Extra  Extras  `json:"-"`
}

type testSquare struct {
	Side  int    `json:"side,required"`
	Extra Extras `json:"-"`
}

type testShortText struct {
	Text  string `json:"text,required"`
	Extra Extras `json:"-"`
}

type testRichText struct {
	Text    string   `json:"text,required"`
	Replies []string `json:"replies"`
}

type testMedia struct {
	URLs []string `json:"urls,required"`
	Text *string  `json:"text"`
}

var testShapes = NewTagged("Shape", "kind",
	VariantOf[testCircle]("circle"),
	VariantOf[testSquare]("square"),
)

var testContents = NewUntagged("Content",
	VariantOf[testShortText]("short"),
	VariantOf[testRichText]("rich"),
	VariantOf[testMedia]("media"),
)

// testShape is a union field type, the way DTO packages declare them.
type testShape struct{ Value }

func (s testShape) MarshalJSON() ([]byte, error) { return testShapes.Encode(s.Value) }

func (s *testShape) UnmarshalJSON(data []byte) error { return testShapes.DecodeInto(data, &s.Value) }

func (s *testShape) CheckJSON(data []byte) error { return testShapes.Validate(data) }

func (s testShape) Validate() error { return testShapes.ValidateValue(s.Value) }

type testDrawing struct {
	Title  string      `json:"title,required"`
	Shapes []testShape `json:"shapes,required"`
	Main   *testShape  `json:"main"`
}

func ptr[T any](v T) *T { return &v }
