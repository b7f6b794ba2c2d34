package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Turkish

	message.SetString(lang, "panel.title", "Özel Oda Oluşturma Sistemi")
	message.SetString(lang, "panel.description", "Merhaba Değerli Üyeler, Özel oda oluşturmak için aşağıdaki butona tıklayabilirsiniz. %d davet sayısına ulaştığınızda özel oda oluşturabilirsiniz.")
	message.SetString(lang, "panel.button", "Özel Oda Oluştur")
	message.SetString(lang, "panel.footer", "Özel Oda Oluşturma Sistemi")

	message.SetString(lang, "room.form.title", "Özel Oda Oluşturma")
	message.SetString(lang, "room.form.name", "Oda Adı")
	message.SetString(lang, "room.form.capacity", "Kişi Sayısı (%d-%d)")

	message.SetString(lang, "room.panel.title", "Özel Oda Oluşturma Sistemi")
	message.SetString(lang, "room.panel.description", "%s, aşağıdaki butonları kullanarak özel oda işlemlerinizi gerçekleştirebilirsiniz.")
	message.SetString(lang, "room.button.lock", "Kilitle")
	message.SetString(lang, "room.button.unlock", "Kilidi Aç")
	message.SetString(lang, "room.button.give", "Sahipliği Devret")
	message.SetString(lang, "room.button.delete", "Sil")
	message.SetString(lang, "room.created", "Özel odanız başarıyla oluşturuldu!")
	message.SetString(lang, "room.locked", "Kanalınız başarıyla kilitlendi.")
	message.SetString(lang, "room.unlocked", "Kanalınızın kilidi başarıyla açıldı.")
	message.SetString(lang, "room.transferred", "%s artık odanızın sahibi!")
	message.SetString(lang, "room.deleted", "Odanız silindi.")

	message.SetString(lang, "transfer.form.title", "Oda Sahipliği Devret")
	message.SetString(lang, "transfer.form.label", "Yeni Sahibin Kullanıcı ID'si")
	message.SetString(lang, "transfer.form.placeholder", "Kullanıcı ID'si giriniz")

	message.SetString(lang, "join.title", "Yeni Üye Katıldı!")
	message.SetString(lang, "join.description", "%s sunucuya katıldı.")
	message.SetString(lang, "leave.title", "Bir Üye Ayrıldı!")
	message.SetString(lang, "leave.description", "%s sunucudan ayrıldı.")
	message.SetString(lang, "log.inviter", "Davet Eden")
	message.SetString(lang, "log.guild", "Sunucu")
	message.SetString(lang, "log.count", "Davet Sayısı")

	message.SetString(lang, "stats.title", "Davet Bilgileri")
	message.SetString(lang, "stats.user", "Kullanıcı")
	message.SetString(lang, "stats.total", "Toplam Davet Sayısı")
	message.SetString(lang, "reset.done", "Tüm davetler sıfırlandı (%d kayıt).")
	message.SetString(lang, "command.invites", "Bir kullanıcının davet sayısını gösterir")
	message.SetString(lang, "command.invites.user", "Sorgulanacak kullanıcı (varsayılan: siz)")
	message.SetString(lang, "command.reset", "Sunucudaki tüm davet kayıtlarını sıfırlar")

	message.SetString(lang, "rooms.not_owner", "Bu kanal size ait olmadığı için bu işlemi yapamazsınız.")
	message.SetString(lang, "rooms.below_threshold", "Özel oda oluşturmak için %d davet sayısına ulaşmanız gerekiyor.")
	message.SetString(lang, "rooms.already_owns", "Zaten bir özel odanız mevcut.")
	message.SetString(lang, "rooms.invalid_name", "Geçersiz oda adı! (1-100 karakter giriniz)")
	message.SetString(lang, "rooms.invalid_capacity", "Geçersiz kişi sayısı! (1-99 arası bir değer giriniz)")
	message.SetString(lang, "rooms.invalid_target", "Geçersiz ID formatı! Sadece sayılardan oluşan bir kullanıcı ID'si girin.")
	message.SetString(lang, "rooms.self_transfer", "Bu oda zaten size ait.")
	message.SetString(lang, "rooms.target_not_member", "Geçersiz kullanıcı ID'si girdiniz. Lütfen geçerli bir kullanıcı ID'si girin.")
	message.SetString(lang, "rooms.target_owns", "Bu kullanıcının zaten bir özel odası var.")
	message.SetString(lang, "rooms.not_found", "Oda bulunamadı. Lütfen tekrar deneyin.")
	message.SetString(lang, "rooms.channel_missing", "Kanal bulunamadı.")
	message.SetString(lang, "rooms.category_missing", "Kategoriniz bulunamadı. Lütfen kategori ID'sini kontrol edin.")
	message.SetString(lang, "invites.not_found", "Bu kullanıcı için kayıtlı davet bulunamadı.")
	message.SetString(lang, "admin.forbidden", "Bu komutu kullanmak için yetkiniz yok.")
	message.SetString(lang, "error.guild_only", "Bu işlem yalnızca bir sunucuda kullanılabilir.")
	message.SetString(lang, "error.generic", "Bir hata oluştu. Lütfen daha sonra tekrar deneyin.")
}
