package model

// Author 作者模型
type Author struct {
	Base
	Name string `gorm:"type:varchar(100);not null;index" json:"name"`

	Books []Book `gorm:"foreignKey:AuthorID" json:"books,omitempty"`
}

// TableName 指定表名
func (Author) TableName() string {
	return "authors"
}

// Book 图书模型
type Book struct {
	Base
	Title           string `gorm:"type:varchar(200);not null;index" json:"title"`
	PublicationYear int    `gorm:"not null;index" json:"publication_year"`
	ISBN            string `gorm:"type:varchar(13)" json:"isbn"`
	IsAvailable     bool   `gorm:"not null" json:"is_available"`
	Description     string `gorm:"type:text" json:"description"`
	AuthorID        uint   `gorm:"not null;index" json:"author_id"`
	CreatedByID     *uint  `gorm:"index" json:"created_by_id"`

	// 关联
	Author    Author    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CreatedBy *User     `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Libraries []Library `gorm:"many2many:library_books;" json:"libraries,omitempty"`
}

// TableName 指定表名
func (Book) TableName() string {
	return "books"
}

// Library 图书馆模型
type Library struct {
	Base
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`

	Books     []Book     `gorm:"many2many:library_books;" json:"books,omitempty"`
	Librarian *Librarian `gorm:"foreignKey:LibraryID" json:"librarian,omitempty"`
}

// TableName 指定表名
func (Library) TableName() string {
	return "libraries"
}

// LibraryBook 图书馆-图书关联模型
type LibraryBook struct {
	LibraryID uint `gorm:"primaryKey;not null" json:"library_id"`
	BookID    uint `gorm:"primaryKey;not null" json:"book_id"`
}

// TableName 指定表名
func (LibraryBook) TableName() string {
	return "library_books"
}

// Librarian 馆员模型，每个图书馆至多一位
type Librarian struct {
	Base
	Name      string `gorm:"type:varchar(100);not null" json:"name"`
	LibraryID uint   `gorm:"not null;uniqueIndex" json:"library_id"`
}

// TableName 指定表名
func (Librarian) TableName() string {
	return "librarians"
}
