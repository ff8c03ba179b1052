package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nsxzhou1114/folio-api/internal/dto"
	"github.com/nsxzhou1114/folio-api/internal/service"
	"github.com/spf13/cobra"
)

// databaseCmd 数据库管理命令
var databaseCmd = &cobra.Command{
	Use:   "db",
	Short: "数据库管理命令",
	Long:  `数据库管理相关的命令，包括迁移、示例数据、清理和重建索引`,
}

// migrateCmd 迁移数据库表
// 示例：./folio-api db migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "迁移数据库表",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		fmt.Println("数据库表迁移完成")
		return nil
	},
}

// seedCmd 写入示例数据
// 示例：./folio-api db seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "写入示例图书数据",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return seedCatalog(cmd.Context(), a.services)
	},
}

var cleanupDays int

// cleanupDBCmd 清理已读通知
// 示例：./folio-api db cleanup --days 30
var cleanupDBCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "清理过期的已读通知",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		days := cleanupDays
		if days <= 0 {
			days = a.cfg.Cron.ReadNotificationTTLDay
		}
		n, err := a.services.Notifications.CleanupRead(cmd.Context(), time.Now().AddDate(0, 0, -days))
		if err != nil {
			return fmt.Errorf("清理通知失败: %w", err)
		}
		fmt.Printf("已清理 %d 条已读通知\n", n)
		return nil
	},
}

// reindexCmd 重建文章搜索索引
// 示例：./folio-api db reindex
var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "重建文章搜索索引",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.services.Posts.Reindex(cmd.Context())
		if err != nil {
			return fmt.Errorf("重建索引失败: %w", err)
		}
		fmt.Printf("已索引 %d 篇文章\n", n)
		return nil
	},
}

func init() {
	cleanupDBCmd.Flags().IntVar(&cleanupDays, "days", 0, "保留天数，默认取配置")

	databaseCmd.AddCommand(migrateCmd)
	databaseCmd.AddCommand(seedCmd)
	databaseCmd.AddCommand(cleanupDBCmd)
	databaseCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(databaseCmd)
}

type seedBook struct {
	title string
	year  int
	isbn  string
}

var seedAuthors = []struct {
	name  string
	books []seedBook
}{
	{"J.K. Rowling", []seedBook{
		{"Harry Potter and the Philosopher's Stone", 1997, "9780747532699"},
		{"Harry Potter and the Chamber of Secrets", 1998, "9780747538493"},
	}},
	{"George Orwell", []seedBook{
		{"Nineteen Eighty-Four", 1949, "9780451524935"},
		{"Animal Farm", 1945, "9780451526342"},
	}},
	{"Jane Austen", []seedBook{
		{"Pride and Prejudice", 1813, "9780141439518"},
		{"Emma", 1815, "9780141439587"},
	}},
	{"J.R.R. Tolkien", []seedBook{
		{"The Hobbit", 1937, "9780547928227"},
		{"The Fellowship of the Ring", 1954, "9780547928210"},
	}},
}

var seedLibraries = []struct {
	name      string
	librarian string
}{
	{"Central Library", "Alice Johnson"},
	{"City Public Library", "Bob Smith"},
}

// seedCatalog 写入示例作者、图书和图书馆，已有数据时跳过
func seedCatalog(ctx context.Context, svcs *service.Services) error {
	_, total, _, err := svcs.Authors.List(ctx, &dto.PageRequest{})
	if err != nil {
		return err
	}
	if total > 0 {
		fmt.Println("已存在作者数据，跳过")
		return nil
	}

	var bookIDs []uint
	for _, a := range seedAuthors {
		author, err := svcs.Authors.FindOrCreate(ctx, a.name)
		if err != nil {
			return fmt.Errorf("创建作者 %s 失败: %w", a.name, err)
		}
		for _, b := range a.books {
			book, err := svcs.Books.Create(ctx, 0, &dto.BookCreateRequest{
				Title:           b.title,
				PublicationYear: b.year,
				ISBN:            b.isbn,
				AuthorID:        author.ID,
			})
			if err != nil {
				return fmt.Errorf("创建图书 %s 失败: %w", b.title, err)
			}
			bookIDs = append(bookIDs, book.ID)
		}
	}

	for i, l := range seedLibraries {
		lib, err := svcs.Libraries.Create(ctx, &dto.LibraryRequest{Name: l.name})
		if err != nil {
			return fmt.Errorf("创建图书馆 %s 失败: %w", l.name, err)
		}
		// 两个馆交替分配馆藏
		for j, id := range bookIDs {
			if j%len(seedLibraries) != i {
				continue
			}
			if _, err := svcs.Libraries.AddBook(ctx, lib.ID, id); err != nil {
				return err
			}
		}
		if _, err := svcs.Libraries.SetLibrarian(ctx, lib.ID, &dto.LibrarianRequest{Name: l.librarian}); err != nil {
			return err
		}
	}

	fmt.Printf("已写入 %d 位作者、%d 本图书、%d 个图书馆\n", len(seedAuthors), len(bookIDs), len(seedLibraries))
	return nil
}
