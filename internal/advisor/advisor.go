// Package advisor builds sales digests for a restaurant and asks a chat
// model for operating or ordering advice based on them.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

const (
	msgOwnerQuestion    = "请先输入要咨询的问题"
	msgCustomerQuestion = "请输入想要咨询的问题"
)

const ownerPrompt = "你是一位经验丰富的餐厅经营顾问，擅长数据分析、市场洞察和经营策略制定。" +
	"你的回答应该：\n" +
	"1. 基于提供的真实统计数据进行分析，给出具体的数据支撑\n" +
	"2. 用简体中文、条理清晰地回答，使用分段和要点来组织内容\n" +
	"3. 如果问题涉及具体顾客或菜品，要引用数据中的具体信息（如姓名、金额、数量等）\n" +
	"4. 提供实用的建议和洞察，帮助老板做出更好的经营决策\n" +
	"5. 使用**粗体**来突出重要信息，使用*斜体*来强调次要信息\n" +
	"6. 回答要专业但友好，避免过于技术化的术语\n" +
	"7. 如果数据不足，要诚实说明，并给出基于经验的建议"

const customerPrompt = "你是一位专业的餐厅点餐顾问，擅长帮助顾客选择适合的菜品。" +
	"你的回答应该：\n" +
	"1. 优先围绕顾客当前浏览的菜品回答，但如果顾客明确提到其他菜品，要综合考虑整个菜单\n" +
	"2. 使用简体中文，语气友好、亲切，像朋友一样给出建议\n" +
	"3. 结合菜品数据（价格、被点次数、评价等）来回答，让建议更有说服力\n" +
	"4. 如果顾客询问菜品特点、搭配建议、口味等，要基于菜单信息给出具体建议\n" +
	"5. 使用**粗体**来突出重要信息，使用*斜体*来强调次要信息\n" +
	"6. 回答要简洁明了，避免冗长，但要有足够的信息帮助顾客做决定\n" +
	"7. 如果数据不足，可以基于菜品名称和分类给出合理的建议"

// OwnerPrompt is the system prompt for the owner's business consultant.
func OwnerPrompt() string { return ownerPrompt }

// CustomerPrompt is the system prompt for the customer's ordering helper.
func CustomerPrompt() string { return customerPrompt }

type Advisor struct {
	store *db.Store
	ai    Completer
}

func New(store *db.Store, ai Completer) *Advisor {
	return &Advisor{store: store, ai: ai}
}

// AskOwner answers an owner's question against the restaurant's sales digest.
func (a *Advisor) AskOwner(ctx context.Context, r api.Restaurant, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", api.Invalid(msgOwnerQuestion)
	}
	stats, err := a.RestaurantStatsText(ctx, r)
	if err != nil {
		return "", err
	}
	user := "餐厅数据如下：\n" + stats + "\n\n老板的问题是：" + question
	return a.ai.Complete(ctx, ownerPrompt, user), nil
}

// AskCustomer answers a question about dish d using the whole menu.
func (a *Advisor) AskCustomer(ctx context.Context, r api.Restaurant, d api.Dish, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", api.Invalid(msgCustomerQuestion)
	}
	menu, err := a.MenuStatsText(ctx, r)
	if err != nil {
		return "", err
	}
	user := fmt.Sprintf("完整菜单和销售数据如下：\n%s\n\n顾客当前正在查看的菜品是：%s（ID: %d）。\n顾客的问题是：%s",
		menu, d.Name, d.ID, question)
	return a.ai.Complete(ctx, customerPrompt, user), nil
}

// RestaurantStatsText is the digest given to the owner's consultant.
func (a *Advisor) RestaurantStatsText(ctx context.Context, r api.Restaurant) (string, error) {
	sum, err := a.store.RestaurantSummary(ctx, r.ID)
	if err != nil {
		return "", fmt.Errorf("restaurant summary: %w", err)
	}
	return formatRestaurantStats(r, sum), nil
}

func formatRestaurantStats(r api.Restaurant, sum db.Summary) string {
	lines := []string{
		"餐厅名称：" + r.Name,
		fmt.Sprintf("总订单数：%d", sum.Orders),
		fmt.Sprintf("总销售额：%s 元", sum.Revenue),
		"",
		"Top 5 客人（按消费额）：",
	}
	if len(sum.TopCustomers) == 0 {
		lines = append(lines, "暂无消费记录。")
	}
	for i, c := range sum.TopCustomers {
		lines = append(lines, fmt.Sprintf("%d. %s - %s 元", i+1, c.User.Username, c.Total))
	}

	lines = append(lines, "", "Top 5 菜品（按份数）：")
	if len(sum.TopByQuantity) == 0 {
		lines = append(lines, "暂无菜品被点。")
	}
	for i, d := range sum.TopByQuantity {
		lines = append(lines, fmt.Sprintf("%d. %s - %d 份", i+1, d.Dish.Name, d.Quantity))
	}

	lines = append(lines, "", "Top 5 菜品（按销售额）：")
	if len(sum.TopByAmount) == 0 {
		lines = append(lines, "暂无菜品销售额数据。")
	}
	for i, d := range sum.TopByAmount {
		lines = append(lines, fmt.Sprintf("%d. %s - %s 元", i+1, d.Dish.Name, d.Amount))
	}
	return strings.Join(lines, "\n")
}

// MenuStatsText lists every dish with its category, price and portions sold.
func (a *Advisor) MenuStatsText(ctx context.Context, r api.Restaurant) (string, error) {
	dishes, err := a.store.ListDishes(ctx, r.ID, 0)
	if err != nil {
		return "", err
	}
	if len(dishes) == 0 {
		return "当前餐厅还没有任何菜品。", nil
	}
	cats, err := a.store.ListCategories(ctx, r.ID)
	if err != nil {
		return "", err
	}
	stats, err := a.store.DishStats(ctx, r.ID)
	if err != nil {
		return "", err
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	lines := []string{"餐厅名称：" + r.Name, "菜品列表："}
	for _, d := range dishes {
		desc := d.Description
		if desc == "" {
			desc = "无"
		}
		lines = append(lines, fmt.Sprintf("- 菜品ID: %d, 名称: %s, 分类: %s, 价格: %s 元, 被点份数: %d 份, 简介: %s",
			d.ID, d.Name, names[d.CategoryID], d.Price, stats[d.ID].Quantity, desc))
	}
	return strings.Join(lines, "\n"), nil
}
